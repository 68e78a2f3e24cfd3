package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leeforge/captchakit/logging"
)

// HeaderName lets non-browser clients carry the signed session token.
const HeaderName = "X-Captcha-Session"

// CookieOptions 会话 Cookie 配置
type CookieOptions struct {
	Name   string
	Secret string
	Path   string
	MaxAge time.Duration
	Secure bool
}

func (o *CookieOptions) applyDefaults() {
	if o.Name == "" {
		o.Name = "captcha_session"
	}
	if o.Path == "" {
		o.Path = "/"
	}
	if o.MaxAge == 0 {
		o.MaxAge = 24 * time.Hour
	}
}

type (
	ctxKey       struct{}
	returningKey struct{}
)

// WithID stores the session ID in ctx.
func WithID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, ctxKey{}, sid)
}

// WithReturning marks the session in ctx as presented by the client with a
// valid signature, as opposed to freshly issued.
func WithReturning(ctx context.Context) context.Context {
	return context.WithValue(ctx, returningKey{}, true)
}

// Returning reports whether the session ID came from a verified cookie or header.
func Returning(ctx context.Context) bool {
	ok, _ := ctx.Value(returningKey{}).(bool)
	return ok
}

// IDFromContext returns the session ID installed by Middleware, or "".
func IDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(ctxKey{}).(string)
	return sid
}

// Middleware resolves the session ID from a signed cookie or header, issuing
// a new one when missing or tampered with.
func Middleware(opts CookieOptions) func(http.Handler) http.Handler {
	opts.applyDefaults()
	secret := []byte(opts.Secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid, ok := "", false
			if c, err := r.Cookie(opts.Name); err == nil {
				sid, ok = Verify(secret, c.Value)
			}
			if !ok {
				sid, ok = Verify(secret, r.Header.Get(HeaderName))
			}
			returning := ok
			if !ok {
				sid = uuid.NewString()
			}

			token := Sign(secret, sid)
			http.SetCookie(w, &http.Cookie{
				Name:     opts.Name,
				Value:    token,
				Path:     opts.Path,
				MaxAge:   int(opts.MaxAge.Seconds()),
				HttpOnly: true,
				Secure:   opts.Secure || r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(HeaderName, token)

			ctx := logging.SetSessionID(WithID(r.Context(), sid), sid)
			if returning {
				ctx = WithReturning(ctx)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Sign returns "<sid>.<mac>".
func Sign(secret []byte, sid string) string {
	return sid + "." + mac(secret, sid)
}

// Verify checks a token produced by Sign and returns the session ID.
func Verify(secret []byte, token string) (string, bool) {
	sid, sig, found := strings.Cut(strings.TrimSpace(token), ".")
	if !found || sid == "" {
		return "", false
	}
	if _, err := uuid.Parse(sid); err != nil {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(mac(secret, sid))) {
		return "", false
	}
	return sid, true
}

func mac(secret []byte, sid string) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(sid))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
