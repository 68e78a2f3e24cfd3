package responder

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/leeforge/captchakit/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// writeJSON is the internal helper for all global functions
func writeJSON(w http.ResponseWriter, status int, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		fallback := []byte("{\"error\":{\"code\":5000,\"message\":\"encode failed\"}}")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(fallback)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

// requestMeta adds the request's trace ID ahead of explicit options
func requestMeta(r *http.Request, opts []Option) *Meta {
	if r != nil {
		if id := logging.GetTraceID(r.Context()); id != "" {
			opts = append([]Option{WithTraceID(id)}, opts...)
		}
	}
	return NewMeta(opts...)
}

// Write sends a success response with data
func Write(w http.ResponseWriter, r *http.Request, status int, data any, opts ...Option) {
	res := &Response{
		Data: data,
		Meta: *requestMeta(r, opts),
	}
	writeJSON(w, status, res)
}

// WriteError sends an error response
func WriteError(w http.ResponseWriter, r *http.Request, status int, err Error, opts ...Option) {
	res := &Response{
		Error: &err,
		Meta:  *requestMeta(r, opts),
	}
	writeJSON(w, status, res)
}

// WriteRaw sends a non-JSON body such as a captcha image
func WriteRaw(w http.ResponseWriter, status int, contentType string, body []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// OK responds with 200 OK and data
func OK(w http.ResponseWriter, r *http.Request, data any, opts ...Option) {
	Write(w, r, http.StatusOK, data, opts...)
}

// NoContent responds with 204 No Content
func NoContent(w http.ResponseWriter, r *http.Request) {
	if id := logging.GetTraceID(r.Context()); id != "" {
		w.Header().Set("X-Trace-ID", id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Fail writes err using its AppError type to pick the status
func Fail(w http.ResponseWriter, r *http.Request, err error, opts ...Option) {
	status, body := FromAppError(err)
	WriteError(w, r, status, body, opts...)
}

// BindError responds with 400 Bad Request for binding errors
func BindError(w http.ResponseWriter, r *http.Request, details any, opts ...Option) {
	WriteError(w, r, http.StatusBadRequest, NewErrorWithDetails(ErrCodeBindFailed, "", details), opts...)
}

// ValidationError responds with 400 Bad Request and validation details
func ValidationError(w http.ResponseWriter, r *http.Request, details any, opts ...Option) {
	WriteError(w, r, http.StatusBadRequest, NewErrorWithDetails(ErrCodeValidationFailed, "", details), opts...)
}

// NotFound responds with 404 Not Found
func NotFound(w http.ResponseWriter, r *http.Request, message string, opts ...Option) {
	WriteError(w, r, http.StatusNotFound, NewError(ErrCodeRouteNotFound, message), opts...)
}

// TooManyRequests responds with 429 Too Many Requests
func TooManyRequests(w http.ResponseWriter, r *http.Request, message string, opts ...Option) {
	WriteError(w, r, http.StatusTooManyRequests, NewError(ErrCodeTooManyRequests, message), opts...)
}
