package middleware

import (
	"net/http"

	"github.com/leeforge/captchakit/captcha"
)

// RequestGuard gives every request a fresh captcha guard so that repeated
// validations inside one request count once.
func RequestGuard() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := captcha.WithGuard(r.Context(), captcha.NewRequestGuard())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
