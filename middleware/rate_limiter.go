package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/leeforge/captchakit/http/responder"
	"github.com/leeforge/captchakit/metrics"
	"github.com/leeforge/captchakit/session"
	"golang.org/x/time/rate"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Rate    float64       `mapstructure:"rate" default:"2"`   // 每秒补充的令牌数
	Burst   int           `mapstructure:"burst" default:"10"` // 桶容量
	IdleTTL time.Duration `mapstructure:"idle-ttl" default:"10m"`
}

// KeyFunc 提取限流维度
type KeyFunc func(r *http.Request) string

// SessionOrIP 已验证的回访会话按会话 ID 限流，新签发的会话按客户端 IP 限流
func SessionOrIP(r *http.Request) string {
	ctx := r.Context()
	if sid := session.IDFromContext(ctx); sid != "" && session.Returning(ctx) {
		return "sid:" + sid
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 令牌桶限流器，每个 key 一个桶
type RateLimiter struct {
	config    RateLimitConfig
	keyFunc   KeyFunc
	collector *metrics.Collector

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

// NewRateLimiter 创建限流器，collector 可为 nil
func NewRateLimiter(config RateLimitConfig, keyFunc KeyFunc, collector *metrics.Collector) *RateLimiter {
	if keyFunc == nil {
		keyFunc = SessionOrIP
	}
	if config.Burst < 1 {
		config.Burst = 1
	}
	return &RateLimiter{
		config:    config,
		keyFunc:   keyFunc,
		collector: collector,
		visitors:  make(map[string]*visitor),
		now:       time.Now,
	}
}

// Update 热更新速率与桶容量，已有的桶同步生效
func (rl *RateLimiter) Update(config RateLimitConfig) {
	if config.Burst < 1 {
		config.Burst = 1
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.config = config
	for _, v := range rl.visitors {
		v.limiter.SetLimitAt(now, rate.Limit(config.Rate))
		v.limiter.SetBurstAt(now, config.Burst)
	}
}

// Allow reports whether key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(rl.config.Rate), rl.config.Burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Middleware 限流中间件
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.keyFunc(r)
		if !rl.Allow(key) {
			if rl.collector != nil {
				rl.collector.IncCounter("rate_limited_total", map[string]string{"kind": strings.SplitN(key, ":", 2)[0]})
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.config.Burst))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
			responder.TooManyRequests(w, r, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) retryAfter() int {
	if rl.config.Rate <= 0 {
		return 60
	}
	secs := int(1/rl.config.Rate + 0.999)
	return max(secs, 1)
}

// Cleanup 清理空闲超过 IdleTTL 的桶，返回清理数量
func (rl *RateLimiter) Cleanup() int {
	if rl.config.IdleTTL <= 0 {
		return 0
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.config.IdleTTL)
	removed := 0
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed
}

// Run 定期清理空闲桶，直到 stop 关闭
func (rl *RateLimiter) Run(stop <-chan struct{}, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			rl.Cleanup()
			if rl.collector != nil {
				rl.collector.SetGauge("rate_limiter_buckets", float64(rl.Len()), nil)
			}
		}
	}
}

// Len 当前桶数量
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}
