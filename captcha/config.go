package captcha

import (
	"maps"
	"os"
	"path/filepath"
	"sort"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/leeforge/captchakit/errors"
)

// DefaultGroup 所有分组继承的基础配置
const DefaultGroup = "default"

// Config 单个分组的验证码配置，构造后不可修改
type Config struct {
	Style      Style          `mapstructure:"style" json:"style" default:"basic" validate:"required"`
	Width      int            `mapstructure:"width" json:"width" default:"150" validate:"gte=1"`
	Height     int            `mapstructure:"height" json:"height" default:"50" validate:"gte=1"`
	Complexity int            `mapstructure:"complexity" json:"complexity" default:"4" validate:"gte=1"`
	Background string         `mapstructure:"background" json:"background"` // 背景图片路径
	FontPath   string         `mapstructure:"fontpath" json:"fontpath"`     // 字体目录
	Fonts      []string       `mapstructure:"fonts" json:"fonts"`
	Promote    Threshold      `mapstructure:"promote" json:"promote"`
	Namespace  string         `mapstructure:"session_namespace" json:"sessionNamespace" default:"captcha" validate:"required"`
	Locale     string         `mapstructure:"locale" json:"locale" default:"en"`
	URLPrefix  string         `mapstructure:"url_prefix" json:"urlPrefix" default:"/captcha/"`
	Renderer   map[string]any `mapstructure:"renderer" json:"renderer"` // 渲染器私有选项
}

// FontFiles returns the absolute font file paths.
func (c Config) FontFiles() []string {
	out := make([]string, len(c.Fonts))
	for i, f := range c.Fonts {
		out[i] = filepath.Join(c.FontPath, f)
	}
	return out
}

// Groups 原始分组配置，通常来自配置文件的 captcha 节点
type Groups map[string]map[string]any

// Names returns group names in sorted order.
func (g Groups) Names() []string {
	names := make([]string, 0, len(g))
	for n := range g {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseGroups converts a generic map (e.g. viper's Sub) into Groups.
func ParseGroups(raw map[string]any) (Groups, error) {
	groups := make(Groups, len(raw))
	for name, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			if v != nil {
				return nil, errors.NewConfig("captcha group must be a map").WithDetail("group", name)
			}
			m = map[string]any{}
		}
		groups[name] = m
	}
	return groups, nil
}

var validate = validator.New()

// ResolveGroup merges name over the default group and validates the result.
// Missing assets and unknown groups are config errors.
func ResolveGroup(groups Groups, name string) (Config, error) {
	base, ok := groups[DefaultGroup]
	if !ok {
		return Config{}, errors.NewGroupNotFound(DefaultGroup)
	}

	merged := maps.Clone(base)
	if merged == nil {
		merged = map[string]any{}
	}
	if name != DefaultGroup {
		overrides, ok := groups[name]
		if !ok {
			return Config{}, errors.NewGroupNotFound(name)
		}
		maps.Copy(merged, overrides)
	}

	cfg, err := decodeConfig(merged)
	if err != nil {
		return Config{}, errors.FromError(err).WithDetail("group", name)
	}
	if err := cfg.check(); err != nil {
		return Config{}, errors.FromError(err).WithDetail("group", name)
	}
	return cfg, nil
}

func decodeConfig(m map[string]any) (Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrorTypeConfig, "apply captcha defaults").WithCode(errors.CodeConfigInvalid)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.DecodeHookFuncType(thresholdHook),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, errors.Wrap(err, errors.ErrorTypeConfig, "build config decoder").WithCode(errors.CodeConfigInvalid)
	}
	if err := dec.Decode(m); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrorTypeConfig, "decode captcha config").WithCode(errors.CodeConfigInvalid)
	}
	return cfg, nil
}

func (c *Config) check() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid captcha config").WithCode(errors.CodeConfigInvalid)
	}
	if c.Promote.Enabled && c.Promote.Value < 1 {
		return errors.NewConfig("promote threshold must be at least 1").WithDetail("promote", c.Promote.Value)
	}

	if c.Background != "" {
		abs, err := assetPath(c.Background)
		if err != nil {
			return err
		}
		c.Background = abs
	}
	if len(c.Fonts) > 0 {
		dir, err := filepath.Abs(c.FontPath)
		if err != nil {
			return errors.NewAssetNotFound(c.FontPath)
		}
		c.FontPath = dir
		for _, f := range c.FontFiles() {
			if _, err := assetPath(f); err != nil {
				return err
			}
		}
	}
	return nil
}

func assetPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.NewAssetNotFound(p)
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return "", errors.NewAssetNotFound(p)
	}
	return abs, nil
}
