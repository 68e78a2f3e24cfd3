// Package render draws image captchas.
package render

import (
	"bytes"
	"fmt"
	"html"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/creasty/defaults"
	"github.com/fogleman/gg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/freetype/truetype"
	"github.com/leeforge/captchakit/captcha"
	"github.com/leeforge/captchakit/errors"
	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Options 图片渲染器私有选项，来自分组配置的 renderer 节点
type Options struct {
	NoiseLines int     `mapstructure:"noise_lines" default:"6"`
	FontScale  float64 `mapstructure:"font_scale" default:"0.6"` // 字号相对图片高度
	MaxAngle   int     `mapstructure:"max_angle" default:"25"`   // 单个字符最大旋转角度
}

// ImageRenderer 将验证码文本绘制为 PNG
type ImageRenderer struct {
	group      string
	width      int
	height     int
	urlPrefix  string
	background image.Image
	fonts      []*truetype.Font
	opts       Options
	rand       captcha.Rand
}

var defaultFont = mustParseFont(goregular.TTF)

func mustParseFont(ttf []byte) *truetype.Font {
	f, err := truetype.Parse(ttf)
	if err != nil {
		panic(err)
	}
	return f
}

// NewImageRenderer loads the background and fonts of cfg. It matches
// captcha.RendererFactory.
func NewImageRenderer(group string, cfg captcha.Config) (captcha.Renderer, error) {
	return newImageRenderer(group, cfg, captcha.DefaultRand)
}

func newImageRenderer(group string, cfg captcha.Config, r captcha.Rand) (*ImageRenderer, error) {
	var opts Options
	if err := defaults.Set(&opts); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "apply renderer defaults")
	}
	if err := mapstructure.WeakDecode(cfg.Renderer, &opts); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "decode renderer options").WithCode(errors.CodeConfigInvalid)
	}

	ir := &ImageRenderer{
		group:     group,
		width:     cfg.Width,
		height:    cfg.Height,
		urlPrefix: cfg.URLPrefix,
		opts:      opts,
		rand:      r,
	}

	if cfg.Background != "" {
		bg, err := loadBackground(cfg.Background)
		if err != nil {
			return nil, err
		}
		ir.background = resize.Resize(uint(cfg.Width), uint(cfg.Height), bg, resize.Lanczos3)
	}

	for _, path := range cfg.FontFiles() {
		f, err := loadFont(path)
		if err != nil {
			return nil, err
		}
		ir.fonts = append(ir.fonts, f)
	}
	if len(ir.fonts) == 0 {
		ir.fonts = []*truetype.Font{defaultFont}
	}
	return ir, nil
}

// loadBackground 根据扩展名选择解码器
func loadBackground(path string) (image.Image, error) {
	var decode func(r *os.File) (image.Image, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		decode = func(r *os.File) (image.Image, error) { return png.Decode(r) }
	case ".gif":
		decode = func(r *os.File) (image.Image, error) { return gif.Decode(r) }
	case ".jpg", ".jpeg":
		decode = func(r *os.File) (image.Image, error) { return jpeg.Decode(r) }
	default:
		return nil, errors.NewConfig("unsupported background image type").WithDetail("file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewAssetNotFound(path)
	}
	defer f.Close()

	img, err := decode(f)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "decode background image").
			WithCode(errors.CodeConfigInvalid).
			WithDetail("file", path)
	}
	return img, nil
}

func loadFont(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewAssetNotFound(path)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "parse font").
			WithCode(errors.CodeConfigInvalid).
			WithDetail("file", path)
	}
	return f, nil
}

// Render draws prompt and returns the PNG with an <img> tag pointing at the
// group's image endpoint.
func (ir *ImageRenderer) Render(prompt string) (*captcha.Artifact, error) {
	dc := gg.NewContext(ir.width, ir.height)
	w, h := float64(ir.width), float64(ir.height)

	if ir.background != nil {
		dc.DrawImage(ir.background, 0, 0)
	} else {
		ir.drawGradient(dc, w, h)
	}

	for i := 0; i < ir.opts.NoiseLines; i++ {
		dc.SetRGBA(ir.channel(80, 200), ir.channel(80, 200), ir.channel(80, 200), 0.6)
		dc.SetLineWidth(float64(1 + ir.rand.IntN(2)))
		dc.DrawLine(ir.coord(w), ir.coord(h), ir.coord(w), ir.coord(h))
		dc.Stroke()
	}

	ir.drawText(dc, prompt, w, h)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode captcha png: %w", err)
	}

	return &captcha.Artifact{
		ContentType: "image/png",
		Body:        buf.Bytes(),
		HTML:        ir.html(),
	}, nil
}

// drawGradient 无背景图时绘制随机浅色渐变
func (ir *ImageRenderer) drawGradient(dc *gg.Context, w, h float64) {
	grad := gg.NewLinearGradient(0, 0, w, h)
	grad.AddColorStop(0, lightColor(ir))
	grad.AddColorStop(1, lightColor(ir))
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()
}

func (ir *ImageRenderer) drawText(dc *gg.Context, text string, w, h float64) {
	if text == "" {
		return
	}
	size := h * ir.opts.FontScale
	step := w / float64(len(text)+1)

	for i, ch := range text {
		face := truetype.NewFace(ir.fonts[ir.rand.IntN(len(ir.fonts))], &truetype.Options{
			Size:    size,
			Hinting: font.HintingFull,
		})

		x := step * float64(i+1)
		y := h/2 + float64(ir.rand.IntN(int(h/6)+1)) - h/12
		angle := 0
		if ir.opts.MaxAngle > 0 {
			angle = ir.rand.IntN(2*ir.opts.MaxAngle+1) - ir.opts.MaxAngle
		}

		dc.Push()
		dc.SetFontFace(face)
		dc.SetRGB(ir.channel(0, 90), ir.channel(0, 90), ir.channel(0, 90))
		dc.RotateAbout(gg.Radians(float64(angle)), x, y)
		dc.DrawStringAnchored(string(ch), x, y, 0.5, 0.5)
		dc.Pop()
		_ = face.Close()
	}
}

func (ir *ImageRenderer) html() string {
	src := ir.urlPrefix + url.PathEscape(ir.group) + "/image"
	return fmt.Sprintf(`<img src="%s" width="%d" height="%d" alt="Captcha" class="captcha" />`,
		html.EscapeString(src), ir.width, ir.height)
}

// channel returns a colour component in [lo, hi]/255.
func (ir *ImageRenderer) channel(lo, hi int) float64 {
	return float64(lo+ir.rand.IntN(hi-lo+1)) / 255
}

func (ir *ImageRenderer) coord(limit float64) float64 {
	return float64(ir.rand.IntN(int(limit) + 1))
}

func lightColor(ir *ImageRenderer) color.RGBA {
	return color.RGBA{
		R: uint8(200 + ir.rand.IntN(56)),
		G: uint8(200 + ir.rand.IntN(56)),
		B: uint8(200 + ir.rand.IntN(56)),
		A: 255,
	}
}
