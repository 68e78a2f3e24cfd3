package captcha

import (
	"github.com/leeforge/captchakit/errors"
)

// ImageAlphabet omits glyphs that are easily confused when distorted (0/O, 1/I, 8/B, S).
const ImageAlphabet = "ACDEFGHJKLMNPQRTUVWXYZ2345679"

// ImageGenerator produces random text to be drawn by an image renderer.
// The prompt equals the answer and must only reach the client as pixels.
type ImageGenerator struct {
	alphabet string
	rand     Rand
}

func NewImageGenerator(alphabet string, r Rand) *ImageGenerator {
	if alphabet == "" {
		alphabet = ImageAlphabet
	}
	if r == nil {
		r = DefaultRand
	}
	return &ImageGenerator{alphabet: alphabet, rand: r}
}

func (g *ImageGenerator) Generate(complexity int) (Challenge, error) {
	if complexity <= 0 {
		return Challenge{}, errors.NewConfig("complexity must be at least 1").WithDetail("complexity", complexity)
	}

	text := make([]byte, complexity)
	for i := range text {
		text[i] = g.alphabet[g.rand.IntN(len(g.alphabet))]
	}
	return Challenge{Prompt: string(text), Answer: string(text)}, nil
}
