package responder

import (
	"net/http"

	"github.com/leeforge/captchakit/errors"
)

// HTTP 状态码相关的错误码
const (
	// 4xxx - 客户端错误
	ErrCodeBadRequest       = 4000 // 请求格式错误
	ErrCodeBindFailed       = 4001 // 参数绑定错误
	ErrCodeValidationFailed = 4002 // 数据验证失败
	ErrCodeNotFound         = 4003 // 资源不存在
	ErrCodeRouteNotFound    = 4004 // 路由不存在
	ErrCodeConflict         = 4008 // 状态冲突
	ErrCodeTooManyRequests  = 4009 // 请求过于频繁

	// 5xxx - 服务端错误
	ErrCodeInternalServer     = 5000 // 内部服务器错误
	ErrCodeConfig             = 5001 // 配置错误
	ErrCodeStoreUnavailable   = 5004 // 会话存储不可用
	ErrCodeServiceUnavailable = 5003 // 服务不可用
)

// 错误消息映射
var errorMessages = map[int]string{
	ErrCodeBadRequest:         "Bad Request",
	ErrCodeBindFailed:         "Invalid Request Body",
	ErrCodeValidationFailed:   "Validation Failed",
	ErrCodeNotFound:           "Resource Not Found",
	ErrCodeRouteNotFound:      "Route Not Found",
	ErrCodeConflict:           "Data Conflict",
	ErrCodeTooManyRequests:    "Too Many Requests",
	ErrCodeInternalServer:     "Internal Server Error",
	ErrCodeConfig:             "Configuration Error",
	ErrCodeStoreUnavailable:   "Session Store Unavailable",
	ErrCodeServiceUnavailable: "Service Unavailable",
}

// defaultMessage returns the default message for an error code
func defaultMessage(code int) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "Unknown Error"
}

// NewError creates a new Error with code and message
func NewError(code int, message string) Error {
	if message == "" {
		message = defaultMessage(code)
	}
	return Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithDetails creates a new Error with code, message and details
func NewErrorWithDetails(code int, message string, details any) Error {
	err := NewError(code, message)
	err.Details = details
	return err
}

// codeFor 将错误类型映射为响应错误码
func codeFor(t errors.ErrorType) int {
	switch t {
	case errors.ErrorTypeValidation:
		return ErrCodeValidationFailed
	case errors.ErrorTypeNotFound:
		return ErrCodeNotFound
	case errors.ErrorTypeState:
		return ErrCodeConflict
	case errors.ErrorTypeRateLimit:
		return ErrCodeTooManyRequests
	case errors.ErrorTypeStore:
		return ErrCodeStoreUnavailable
	case errors.ErrorTypeConfig:
		return ErrCodeConfig
	default:
		return ErrCodeInternalServer
	}
}

// FromAppError converts err into an HTTP status and response error.
// Inner errors of server-side failures are not exposed.
func FromAppError(err error) (int, Error) {
	appErr := errors.FromError(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	code := codeFor(appErr.Type)
	message := appErr.Message
	var details any
	if status < http.StatusInternalServerError {
		if len(appErr.Details) > 0 {
			details = appErr.Details
		}
	} else {
		message = defaultMessage(code)
	}

	return status, Error{
		Code:    code,
		Reason:  appErr.Code,
		Message: message,
		Details: details,
	}
}
