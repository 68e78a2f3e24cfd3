package captcha

import (
	"github.com/leeforge/captchakit/errors"
)

// Riddle 一条问答
type Riddle struct {
	Prompt string `yaml:"question" json:"question"`
	Answer string `yaml:"answer" json:"answer"`
}

// RiddleSource loads riddles for a locale.
type RiddleSource interface {
	Riddles(locale string) ([]Riddle, error)
}

// StaticRiddles is an in-memory RiddleSource keyed by locale.
type StaticRiddles map[string][]Riddle

func (s StaticRiddles) Riddles(locale string) ([]Riddle, error) {
	return s[locale], nil
}

// RiddleGenerator picks a riddle uniformly at random.
type RiddleGenerator struct {
	riddles []Riddle
	rand    Rand
}

// NewRiddleGenerator fails with a config error when riddles is empty.
func NewRiddleGenerator(riddles []Riddle, r Rand) (*RiddleGenerator, error) {
	if len(riddles) == 0 {
		return nil, errors.NewConfig("no riddles configured for the active locale")
	}
	if r == nil {
		r = DefaultRand
	}
	return &RiddleGenerator{riddles: append([]Riddle(nil), riddles...), rand: r}, nil
}

// Generate ignores complexity beyond validating it.
func (g *RiddleGenerator) Generate(complexity int) (Challenge, error) {
	if complexity <= 0 {
		return Challenge{}, errors.NewConfig("complexity must be at least 1").WithDetail("complexity", complexity)
	}
	if len(g.riddles) == 0 {
		return Challenge{}, errors.NewConfig("no riddles configured for the active locale")
	}
	rd := g.riddles[g.rand.IntN(len(g.riddles))]
	return Challenge{Prompt: rd.Prompt, Answer: rd.Answer}, nil
}
