package main

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/leeforge/captchakit/config"
	"github.com/leeforge/captchakit/logging"
	limiter "github.com/leeforge/captchakit/middleware"
	"go.uber.org/zap"
)

// hotReload applies rate-limit changes from the watched config files. Events
// that arrive before attach are ignored.
type hotReload struct {
	mu      sync.Mutex
	cfg     *config.Config
	limiter *limiter.RateLimiter
	logger  logging.Logger
}

func (h *hotReload) attach(cfg *config.Config, rl *limiter.RateLimiter, logger logging.Logger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cfg, h.limiter, h.logger = cfg, rl, logger
}

func (h *hotReload) onChange(e fsnotify.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cfg == nil || h.limiter == nil {
		return
	}

	var next AppConfig
	if err := h.cfg.BindWithDefaults(&next); err != nil {
		h.logger.Error("config reload failed", zap.String("file", e.Name), zap.Error(err))
		return
	}
	h.limiter.Update(next.RateLimit)
	h.logger.Info("rate limit reloaded",
		zap.String("file", e.Name),
		zap.Float64("rate", next.RateLimit.Rate),
		zap.Int("burst", next.RateLimit.Burst),
	)
}
