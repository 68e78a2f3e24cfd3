package captcha

import (
	"context"
	"sync/atomic"
)

// RequestGuard lets at most one validation per request touch the counters.
// A nil guard never blocks counting.
type RequestGuard struct {
	counted atomic.Bool
}

func NewRequestGuard() *RequestGuard {
	return &RequestGuard{}
}

// Reset re-arms the guard for a new request.
func (g *RequestGuard) Reset() {
	if g != nil {
		g.counted.Store(false)
	}
}

// claim returns true for the first caller since the last Reset.
func (g *RequestGuard) claim() bool {
	if g == nil {
		return true
	}
	return g.counted.CompareAndSwap(false, true)
}

// Counted reports whether the guard has already been used.
func (g *RequestGuard) Counted() bool {
	return g != nil && g.counted.Load()
}

type guardKey struct{}

// WithGuard attaches g to ctx.
func WithGuard(ctx context.Context, g *RequestGuard) context.Context {
	return context.WithValue(ctx, guardKey{}, g)
}

// GuardFromContext returns the request guard or nil.
func GuardFromContext(ctx context.Context) *RequestGuard {
	g, _ := ctx.Value(guardKey{}).(*RequestGuard)
	return g
}
