package captcha

import (
	"strconv"
	"strings"

	"github.com/leeforge/captchakit/errors"
)

// MathGenerator asks for the sum of two or three random operands.
type MathGenerator struct {
	rand Rand
}

func NewMathGenerator(r Rand) *MathGenerator {
	if r == nil {
		r = DefaultRand
	}
	return &MathGenerator{rand: r}
}

func (g *MathGenerator) Generate(complexity int) (Challenge, error) {
	if complexity <= 0 {
		return Challenge{}, errors.NewConfig("complexity must be at least 1").WithDetail("complexity", complexity)
	}

	var operands []int
	switch {
	case complexity < 4:
		operands = []int{between(g.rand, 1, 5), between(g.rand, 1, 4)}
	case complexity < 7:
		operands = []int{between(g.rand, 10, 20), between(g.rand, 1, 10)}
	default:
		operands = []int{between(g.rand, 100, 200), between(g.rand, 10, 20), between(g.rand, 1, 10)}
	}

	parts := make([]string, len(operands))
	sum := 0
	for i, n := range operands {
		parts[i] = strconv.Itoa(n)
		sum += n
	}

	return Challenge{
		Prompt: strings.Join(parts, " + ") + " = ",
		Answer: strconv.Itoa(sum),
	}, nil
}
