package captcha

import (
	"html"
)

// Artifact 渲染结果
type Artifact struct {
	ContentType string
	Body        []byte
	HTML        string
}

// Renderer turns a prompt into something presentable. It never sees the answer.
type Renderer interface {
	Render(prompt string) (*Artifact, error)
}

// RendererFactory builds the renderer for a resolved group.
type RendererFactory func(group string, cfg Config) (Renderer, error)

// TextRenderer presents the prompt as escaped text. Used by math and riddle.
type TextRenderer struct{}

func NewTextRenderer(string, Config) (Renderer, error) {
	return TextRenderer{}, nil
}

func (TextRenderer) Render(prompt string) (*Artifact, error) {
	escaped := html.EscapeString(prompt)
	return &Artifact{
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(prompt),
		HTML:        escaped,
	}, nil
}
