package binding

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	validatorV10 "github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodyBytes 请求体上限，验证码请求体都很小
const maxBodyBytes = 16 << 10

type BindError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e BindError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s' %s", e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

type ValidationErrors []BindError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", ve[0].Error())
}

// Bind 根据 Content-Type 选择 JSON 或表单绑定，然后执行校验
func Bind(r *http.Request, v any) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded":
		return Form(r, v)
	default:
		return JSON(r, v)
	}
}

func JSON(r *http.Request, v any) error {
	if r.Body == nil {
		return &BindError{
			Type:    "bind_error",
			Message: "request body is empty",
		}
	}

	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return &BindError{
			Type:    "bind_error",
			Message: "failed to read request body: " + err.Error(),
		}
	}
	if len(body) > maxBodyBytes {
		return &BindError{
			Type:    "bind_error",
			Message: "request body too large",
		}
	}

	if len(body) == 0 {
		return &BindError{
			Type:    "bind_error",
			Message: "request body is empty",
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &BindError{
			Type:    "json_error",
			Message: "failed to unmarshal JSON: " + err.Error(),
		}
	}

	return Validate(v)
}

// Form 将表单字段按 form 标签解码到结构体
func Form(r *http.Request, v any) error {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	}
	if err := r.ParseForm(); err != nil {
		return &BindError{
			Type:    "bind_error",
			Message: "failed to parse form: " + err.Error(),
		}
	}

	values := make(map[string]any, len(r.PostForm))
	for k, vs := range r.PostForm {
		if len(vs) > 0 {
			values[k] = vs[0]
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "form",
		WeaklyTypedInput: true,
		Result:           v,
	})
	if err != nil {
		return &BindError{Type: "bind_error", Message: err.Error()}
	}
	if err := dec.Decode(values); err != nil {
		return &BindError{
			Type:    "form_error",
			Message: "failed to decode form: " + err.Error(),
		}
	}

	return Validate(v)
}

// Validate runs struct validation and converts failures into ValidationErrors.
func Validate(v any) error {
	if err := validator.Struct(v); err != nil {
		if validationErrors, ok := err.(validatorV10.ValidationErrors); ok {
			var bindErrors ValidationErrors
			for _, ve := range validationErrors {
				bindErrors = append(bindErrors, BindError{
					Type:    "validation_error",
					Field:   ve.Field(),
					Message: getValidationMessage(ve),
				})
			}
			return bindErrors
		}
		return &BindError{
			Type:    "validation_error",
			Message: err.Error(),
		}
	}
	return nil
}
