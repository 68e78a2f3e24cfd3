package captcha

import (
	"context"
	"sort"
	"time"

	"github.com/leeforge/captchakit/errors"
	"github.com/leeforge/captchakit/logging"
	"github.com/leeforge/captchakit/metrics"
	"github.com/leeforge/captchakit/session"
	"go.uber.org/zap"
)

// Service 编排验证码的签发与校验
type Service struct {
	groups    map[string]*group
	store     session.Store
	registry  *Registry
	hasher    Hasher
	rand      Rand
	riddles   RiddleSource
	renderers map[Style]RendererFactory
	collector *metrics.Collector
	logger    logging.Logger
}

type group struct {
	name     string
	cfg      Config
	style    Style
	gen      Generator
	renderer Renderer
}

// Option configures a Service.
type Option func(*Service)

func WithRegistry(r *Registry) Option {
	return func(s *Service) { s.registry = r }
}

func WithHasher(h Hasher) Option {
	return func(s *Service) { s.hasher = h }
}

func WithRand(r Rand) Option {
	return func(s *Service) { s.rand = r }
}

func WithRiddleSource(src RiddleSource) Option {
	return func(s *Service) { s.riddles = src }
}

// WithRendererFactory sets the renderer for a canonical style.
func WithRendererFactory(style Style, f RendererFactory) Option {
	return func(s *Service) { s.renderers[style] = f }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(s *Service) { s.collector = c }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService resolves every group in groups. Any configuration problem is
// returned here rather than at request time.
func NewService(groups Groups, store session.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.NewConfig("session store is required")
	}

	s := &Service{
		groups:   make(map[string]*group, len(groups)),
		store:    store,
		registry: DefaultRegistry(),
		hasher:   SHA1Hasher{},
		rand:     DefaultRand,
		renderers: map[Style]RendererFactory{
			StyleMath:   NewTextRenderer,
			StyleRiddle: NewTextRenderer,
		},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.collector == nil {
		s.collector = metrics.NewCollector()
	}
	s.logger = s.logger.Named("captcha")

	if _, ok := groups[DefaultGroup]; !ok {
		return nil, errors.NewGroupNotFound(DefaultGroup)
	}
	for _, name := range groups.Names() {
		g, err := s.buildGroup(groups, name)
		if err != nil {
			return nil, err
		}
		s.groups[name] = g
		s.logger.Info("captcha group ready",
			zap.String("group", name),
			zap.String("style", string(g.style)),
			zap.Int("complexity", g.cfg.Complexity),
			zap.Bool("promote", g.cfg.Promote.Enabled),
		)
	}
	return s, nil
}

func (s *Service) buildGroup(groups Groups, name string) (*group, error) {
	cfg, err := ResolveGroup(groups, name)
	if err != nil {
		return nil, err
	}

	gen, style, err := s.registry.New(cfg, FactoryDeps{Rand: s.rand, Riddles: s.riddles})
	if err != nil {
		return nil, errors.FromError(err).WithDetail("group", name)
	}

	factory, ok := s.renderers[style]
	if !ok {
		return nil, errors.NewConfig("no renderer registered for style").
			WithDetail("group", name).
			WithDetail("style", string(style))
	}
	renderer, err := factory(name, cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "build renderer").
			WithCode(errors.CodeConfigInvalid).
			WithDetail("group", name)
	}

	return &group{name: name, cfg: cfg, style: style, gen: gen, renderer: renderer}, nil
}

// Groups lists configured group names.
func (s *Service) Groups() []string {
	names := make([]string, 0, len(s.groups))
	for n := range s.groups {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Config returns the resolved configuration of a group.
func (s *Service) Config(name string) (Config, error) {
	g, err := s.group(name)
	if err != nil {
		return Config{}, err
	}
	return g.cfg, nil
}

func (s *Service) group(name string) (*group, error) {
	g, ok := s.groups[name]
	if !ok {
		return nil, errors.NewNotFound("captcha group", name).WithCode(errors.CodeGroupNotFound)
	}
	return g, nil
}

// Session returns the state machine for one session in one group. A request
// guard found in ctx is bound to the session.
func (s *Service) Session(ctx context.Context, name, sid string) (*Session, error) {
	g, err := s.group(name)
	if err != nil {
		return nil, err
	}
	if sid == "" {
		return nil, errors.NewValidation("session id is required")
	}
	return s.newSession(ctx, g, sid), nil
}

func (s *Service) newSession(ctx context.Context, g *group, sid string) *Session {
	return NewSession(g.cfg, g.gen, NewSessionCounters(s.store, sid),
		WithSessionHasher(s.hasher),
		WithRequestGuard(GuardFromContext(ctx)),
		WithSessionLogger(logging.WithContext(s.logger, ctx).With(zap.String("group", g.name))),
	)
}

// Issue creates a new challenge and renders its prompt. The answer is not part
// of the result.
func (s *Service) Issue(ctx context.Context, name, sid string) (*Issued, error) {
	start := time.Now()
	sess, err := s.Session(ctx, name, sid)
	if err != nil {
		return nil, err
	}
	g := s.groups[name]

	ch, err := sess.NewChallenge(ctx)
	if err != nil {
		s.recordError(ctx, "issue", name, err)
		return nil, err
	}
	art, err := g.renderer.Render(ch.Prompt)
	if err != nil {
		s.recordError(ctx, "issue", name, err)
		e := errors.NewInternal("render captcha")
		e.InnerError = err
		return nil, e
	}

	labels := map[string]string{"group": name, "style": string(g.style)}
	s.collector.IncCounter("captcha_issued_total", labels)
	s.collector.ObserveHistogram("captcha_issue_duration_seconds", time.Since(start).Seconds(), labels)

	return &Issued{
		Group:       name,
		Style:       g.style,
		HTML:        art.HTML,
		ContentType: art.ContentType,
		Body:        art.Body,
	}, nil
}

// Check validates a response. Promoted sessions always pass.
func (s *Service) Check(ctx context.Context, name, sid, response string) (bool, error) {
	sess, err := s.Session(ctx, name, sid)
	if err != nil {
		return false, err
	}

	valid, err := sess.Validate(ctx, response)
	if err != nil {
		s.recordError(ctx, "check", name, err)
		return false, err
	}

	result := "invalid"
	if valid {
		result = "valid"
	}
	s.collector.IncCounter("captcha_checks_total", map[string]string{"group": name, "result": result})
	logging.WithContext(s.logger, ctx).Debug("captcha checked",
		zap.String("group", name),
		zap.Bool("valid", valid),
	)
	return valid, nil
}

// Status reports the counters of a session.
func (s *Service) Status(ctx context.Context, name, sid string) (*Status, error) {
	sess, err := s.Session(ctx, name, sid)
	if err != nil {
		return nil, err
	}
	st, err := sess.Status(ctx)
	if err != nil {
		s.recordError(ctx, "status", name, err)
		return nil, err
	}
	st.Group = name
	return &st, nil
}

// Reset clears both counters and the pending challenge.
func (s *Service) Reset(ctx context.Context, name, sid string) error {
	sess, err := s.Session(ctx, name, sid)
	if err != nil {
		return err
	}
	if err := sess.ResetCounts(ctx); err != nil {
		s.recordError(ctx, "reset", name, err)
		return err
	}
	if err := sess.ClearChallenge(ctx); err != nil {
		s.recordError(ctx, "reset", name, err)
		return err
	}
	s.collector.IncCounter("captcha_resets_total", map[string]string{"group": name})
	return nil
}

// Metrics returns the collector used by the service.
func (s *Service) Metrics() *metrics.Collector { return s.collector }

func (s *Service) recordError(ctx context.Context, op, name string, err error) {
	if isStoreError(err) {
		s.collector.IncCounter("captcha_store_errors_total", map[string]string{"op": op, "group": name})
	}
	logging.WithContext(s.logger, ctx).Error("captcha "+op+" failed", zap.String("group", name), zap.Error(err))
}
