package captcha

import (
	"context"

	"github.com/leeforge/captchakit/errors"
	"github.com/leeforge/captchakit/logging"
	"go.uber.org/zap"
)

// Session 单个会话、单个分组的验证码状态机
//
// Session holds no state of its own besides the request guard; counters and
// the answer hash live in the CounterStore and are re-read on every call.
type Session struct {
	cfg      Config
	gen      Generator
	hasher   Hasher
	counters CounterStore
	guard    *RequestGuard
	logger   logging.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

func WithSessionHasher(h Hasher) SessionOption {
	return func(s *Session) { s.hasher = h }
}

func WithRequestGuard(g *RequestGuard) SessionOption {
	return func(s *Session) { s.guard = g }
}

func WithSessionLogger(l logging.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

func NewSession(cfg Config, gen Generator, counters CounterStore, opts ...SessionOption) *Session {
	s := &Session{
		cfg:      cfg,
		gen:      gen,
		hasher:   SHA1Hasher{},
		counters: counters,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the group configuration.
func (s *Session) Config() Config { return s.cfg }

// NewChallenge generates a challenge and stores its answer hash, replacing any
// previous one.
func (s *Session) NewChallenge(ctx context.Context) (Challenge, error) {
	ch, err := s.gen.Generate(s.cfg.Complexity)
	if err != nil {
		return Challenge{}, err
	}
	if err := s.counters.SetStoredHash(ctx, s.cfg.Namespace, s.hasher.Hash(ch.Answer)); err != nil {
		return Challenge{}, err
	}
	return ch, nil
}

// ClearChallenge removes the stored answer hash.
func (s *Session) ClearChallenge(ctx context.Context) error {
	return s.counters.DeleteStoredHash(ctx, s.cfg.Namespace)
}

// Validate compares response with the stored answer, case-insensitively.
//
// A promoted session always passes and is not counted. Without a stored
// challenge the response is invalid. Only store failures are returned as errors.
func (s *Session) Validate(ctx context.Context, response string) (bool, error) {
	promoted, err := s.Promoted(ctx)
	if err != nil {
		return false, err
	}
	if promoted {
		return true, nil
	}

	valid, err := s.compare(ctx, response)
	if err != nil {
		if !errors.IsType(err, errors.ErrorTypeState) {
			return false, err
		}
		s.logger.Debug("captcha validate without challenge", zap.String("namespace", s.cfg.Namespace))
		valid = false
	}

	if s.activeGuard(ctx).claim() {
		name := keyInvalidCount
		if valid {
			name = keyValidCount
		}
		if _, err := s.counters.IncrCounter(ctx, s.cfg.Namespace, name); err != nil {
			return false, err
		}
	}
	return valid, nil
}

func (s *Session) compare(ctx context.Context, response string) (bool, error) {
	stored, ok, err := s.counters.StoredHash(ctx, s.cfg.Namespace)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, errors.NewState("no captcha challenge issued").WithCode(errors.CodeNoChallenge)
	}
	return s.hasher.Hash(response) == stored, nil
}

// activeGuard prefers the session's own guard over one carried by ctx.
func (s *Session) activeGuard(ctx context.Context) *RequestGuard {
	if s.guard != nil {
		return s.guard
	}
	return GuardFromContext(ctx)
}

// ResetPerRequestGuard re-arms counting for a new request.
func (s *Session) ResetPerRequestGuard() {
	if s.guard == nil {
		s.guard = NewRequestGuard()
		return
	}
	s.guard.Reset()
}

func (s *Session) ValidCount(ctx context.Context) (int, error) {
	return s.counters.Counter(ctx, s.cfg.Namespace, keyValidCount)
}

// SetValidCount stores n, deleting the counter when n < 1. It returns the
// value that now reads back.
func (s *Session) SetValidCount(ctx context.Context, n int) (int, error) {
	return s.setCounter(ctx, keyValidCount, n)
}

func (s *Session) InvalidCount(ctx context.Context) (int, error) {
	return s.counters.Counter(ctx, s.cfg.Namespace, keyInvalidCount)
}

func (s *Session) SetInvalidCount(ctx context.Context, n int) (int, error) {
	return s.setCounter(ctx, keyInvalidCount, n)
}

func (s *Session) setCounter(ctx context.Context, name string, n int) (int, error) {
	if err := s.counters.SetCounter(ctx, s.cfg.Namespace, name, n); err != nil {
		return 0, err
	}
	return max(n, 0), nil
}

// ResetCounts deletes both counters.
func (s *Session) ResetCounts(ctx context.Context) error {
	if err := s.counters.DeleteCounter(ctx, s.cfg.Namespace, keyValidCount); err != nil {
		return err
	}
	return s.counters.DeleteCounter(ctx, s.cfg.Namespace, keyInvalidCount)
}

// Promoted checks the configured threshold.
func (s *Session) Promoted(ctx context.Context) (bool, error) {
	return s.PromotedAt(ctx, s.cfg.Promote.Value)
}

// PromotedAt checks against threshold instead of the configured value. It is
// always false when promotion is disabled for the group.
func (s *Session) PromotedAt(ctx context.Context, threshold int) (bool, error) {
	if !s.cfg.Promote.Enabled {
		return false, nil
	}
	n, err := s.ValidCount(ctx)
	if err != nil {
		return false, err
	}
	return IsPromoted(n, threshold, true), nil
}

// Status reads both counters and the promotion flag.
func (s *Session) Status(ctx context.Context) (Status, error) {
	valid, err := s.ValidCount(ctx)
	if err != nil {
		return Status{}, err
	}
	invalid, err := s.InvalidCount(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		ValidCount:   valid,
		InvalidCount: invalid,
		Promoted:     IsPromoted(valid, s.cfg.Promote.Value, s.cfg.Promote.Enabled),
	}, nil
}
