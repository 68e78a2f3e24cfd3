package middleware

import (
	"context"
	"net/http"
	"time"
)

type timingContextKey struct{}

// Timing records request start time for calculating processing duration
func Timing() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), timingContextKey{}, time.Now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestDuration returns the milliseconds since Timing saw the request, or 0
func RequestDuration(ctx context.Context) int64 {
	if startTime, ok := ctx.Value(timingContextKey{}).(time.Time); ok {
		return time.Since(startTime).Milliseconds()
	}
	return 0
}
