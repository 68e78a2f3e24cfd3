package captcha

import "math/rand/v2"

// Generator 生成一道验证码挑战
type Generator interface {
	Generate(complexity int) (Challenge, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(complexity int) (Challenge, error)

func (f GeneratorFunc) Generate(complexity int) (Challenge, error) {
	return f(complexity)
}

// Rand is the randomness source used by generators. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand draws from the process-wide math/rand/v2 source.
var DefaultRand Rand = globalRand{}

// between returns a value in [lo, hi].
func between(r Rand, lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}
