package captcha

import (
	"sort"

	"github.com/leeforge/captchakit/errors"
)

// FactoryDeps 构造生成器所需的外部依赖
type FactoryDeps struct {
	Rand    Rand
	Riddles RiddleSource
}

// Factory builds the generator for one group.
type Factory func(cfg Config, deps FactoryDeps) (Generator, error)

// Registry maps style names to generator factories.
type Registry struct {
	factories map[Style]Factory
	aliases   map[Style]Style
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[Style]Factory),
		aliases:   make(map[Style]Style),
	}
}

// DefaultRegistry knows math, riddle and image (plus the basic/alpha aliases).
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(StyleMath, newMath)
	r.Register(StyleRiddle, newRiddle)
	r.Register(StyleImage, newImage, StyleBasic, StyleAlpha)
	return r
}

// Register adds or replaces a factory. Aliases resolve to style.
func (r *Registry) Register(style Style, f Factory, aliases ...Style) {
	r.factories[style] = f
	for _, a := range aliases {
		r.aliases[a] = style
	}
}

// Canonical resolves aliases and reports whether style is registered.
func (r *Registry) Canonical(style Style) (Style, bool) {
	if target, ok := r.aliases[style]; ok {
		style = target
	}
	_, ok := r.factories[style]
	return style, ok
}

// Styles lists registered canonical styles.
func (r *Registry) Styles() []Style {
	out := make([]Style, 0, len(r.factories))
	for s := range r.factories {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// New builds the generator for cfg and returns the canonical style.
func (r *Registry) New(cfg Config, deps FactoryDeps) (Generator, Style, error) {
	style, ok := r.Canonical(cfg.Style)
	if !ok {
		return nil, "", errors.NewConfig("unknown captcha style").WithDetail("style", string(cfg.Style))
	}
	gen, err := r.factories[style](cfg, deps)
	if err != nil {
		return nil, "", err
	}
	return gen, style, nil
}

func newMath(_ Config, deps FactoryDeps) (Generator, error) {
	return NewMathGenerator(deps.Rand), nil
}

func newImage(_ Config, deps FactoryDeps) (Generator, error) {
	return NewImageGenerator(ImageAlphabet, deps.Rand), nil
}

func newRiddle(cfg Config, deps FactoryDeps) (Generator, error) {
	if deps.Riddles == nil {
		return nil, errors.NewConfig("riddle style requires a riddle source")
	}
	riddles, err := deps.Riddles.Riddles(cfg.Locale)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "load riddles").
			WithCode(errors.CodeConfigInvalid).
			WithDetail("locale", cfg.Locale)
	}
	g, err := NewRiddleGenerator(riddles, deps.Rand)
	if err != nil {
		return nil, errors.FromError(err).WithDetail("locale", cfg.Locale)
	}
	return g, nil
}
