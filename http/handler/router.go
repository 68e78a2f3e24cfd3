// Package handler exposes the captcha service over HTTP.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leeforge/captchakit/captcha"
	httpmw "github.com/leeforge/captchakit/http/middleware"
	"github.com/leeforge/captchakit/http/responder"
	"github.com/leeforge/captchakit/logging"
	"github.com/leeforge/captchakit/metrics"
	limiter "github.com/leeforge/captchakit/middleware"
	"github.com/leeforge/captchakit/session"
)

// RouterConfig 路由依赖
type RouterConfig struct {
	Service      *captcha.Service
	Logger       logging.Logger
	Session      session.CookieOptions
	IssueLimiter *limiter.RateLimiter // 可选，限制签发频率
}

// NewRouter builds the HTTP API:
//
//	GET    /captcha/{group}         issue a challenge (JSON)
//	GET    /captcha/{group}/image   issue a challenge (raw artifact)
//	POST   /captcha/{group}/check   validate a response
//	GET    /captcha/{group}/status  counters and promotion
//	DELETE /captcha/{group}/counts  reset counters
//	GET    /metrics
//	GET    /healthz
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	h := &Handler{svc: cfg.Service, logger: logger.Named("http")}

	r := chi.NewRouter()
	r.Use(
		httpmw.TraceID(),
		httpmw.Timing(),
		session.Middleware(cfg.Session),
		logging.HTTPMiddleware(logger),
		logging.RecoveryMiddleware(logger),
		metrics.Middleware(cfg.Service.Metrics()),
		httpmw.RequestGuard(),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responder.NotFound(w, r, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		responder.WriteError(w, r, http.StatusMethodNotAllowed, responder.NewError(responder.ErrCodeBadRequest, "Method Not Allowed"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		responder.OK(w, r, map[string]any{"status": "ok", "groups": cfg.Service.Groups()})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(cfg.Service.Metrics()))

	r.Route("/captcha/{group}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.IssueLimiter != nil {
				r.Use(cfg.IssueLimiter.Middleware)
			}
			r.Get("/", h.Issue)
			r.Get("/image", h.Image)
		})
		r.Post("/check", h.Check)
		r.Get("/status", h.Status)
		r.Delete("/counts", h.Reset)
	})

	return r
}
