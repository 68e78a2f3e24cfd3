package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
	"github.com/leeforge/captchakit/logging"
)

// TraceIDHeader is the HTTP header name for trace ID
const TraceIDHeader = "X-Trace-ID"

// 只接受长度合理的安全字符，避免日志注入
var validTraceID = regexp.MustCompile(`^[A-Za-z0-9._-]{8,64}$`)

// TraceID reuses a well-formed X-Trace-ID header or generates a UUID, and
// stores it in the context and the response header.
func TraceID() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceIDHeader)
			if !validTraceID.MatchString(traceID) {
				traceID = uuid.NewString()
			}

			w.Header().Set(TraceIDHeader, traceID)
			next.ServeHTTP(w, r.WithContext(logging.SetTraceID(r.Context(), traceID)))
		})
	}
}
