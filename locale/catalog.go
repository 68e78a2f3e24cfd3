// Package locale loads riddle sets per language and picks the closest match
// for a requested locale.
package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/leeforge/captchakit/captcha"
	"github.com/leeforge/captchakit/errors"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed riddles/*.yaml
var builtin embed.FS

type file struct {
	Riddles []captcha.Riddle `yaml:"riddles"`
}

// Catalog 按语言保存问答题库，实现 captcha.RiddleSource
type Catalog struct {
	mu       sync.RWMutex
	riddles  map[language.Tag][]captcha.Riddle
	tags     []language.Tag
	matcher  language.Matcher
	fallback language.Tag
}

// NewCatalog creates an empty catalog. Unmatched locales use fallback.
func NewCatalog(fallback string) (*Catalog, error) {
	tag, err := language.Parse(fallback)
	if err != nil {
		return nil, errors.NewConfig("invalid fallback locale").WithDetail("locale", fallback)
	}
	return &Catalog{
		riddles:  make(map[language.Tag][]captcha.Riddle),
		fallback: tag,
	}, nil
}

// Default returns a catalog with the built-in riddles and English fallback.
func Default() *Catalog {
	c, _ := NewCatalog("en")
	if err := c.LoadBuiltin(); err != nil {
		panic(fmt.Sprintf("locale: built-in riddles: %v", err))
	}
	return c
}

// LoadBuiltin adds the riddle sets compiled into the binary.
func (c *Catalog) LoadBuiltin() error {
	return c.LoadFS(builtin, "riddles")
}

// Add appends riddles for locale.
func (c *Catalog) Add(locale string, riddles []captcha.Riddle) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return errors.NewConfig("invalid locale").WithDetail("locale", locale)
	}
	for i, r := range riddles {
		if strings.TrimSpace(r.Prompt) == "" || strings.TrimSpace(r.Answer) == "" {
			return errors.NewConfig("riddle needs a question and an answer").
				WithDetail("locale", locale).
				WithDetail("index", i)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.riddles[tag]; !ok {
		c.tags = append(c.tags, tag)
	}
	c.riddles[tag] = append(c.riddles[tag], riddles...)
	c.matcher = language.NewMatcher(c.tags)
	return nil
}

// Parse reads a YAML document of the form {riddles: [{question, answer}]}.
func (c *Catalog) Parse(locale string, data []byte) error {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "parse riddle file").
			WithCode(errors.CodeConfigInvalid).
			WithDetail("locale", locale)
	}
	return c.Add(locale, f.Riddles)
}

// LoadDir loads every <locale>.yaml or <locale>.yml file in dir.
func (c *Catalog) LoadDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return errors.NewAssetNotFound(dir)
	}
	return c.LoadFS(os.DirFS(dir), ".")
}

// LoadFS is LoadDir over an fs.FS.
func (c *Catalog) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "read riddle directory").WithCode(errors.CodeConfigInvalid)
	}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "read riddle file").WithDetail("file", e.Name())
		}
		if err := c.Parse(strings.TrimSuffix(e.Name(), ext), data); err != nil {
			return err
		}
	}
	return nil
}

// Riddles returns the riddles of the closest supported locale, or of the
// fallback locale when nothing matches.
func (c *Catalog) Riddles(locale string) ([]captcha.Riddle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.tags) == 0 {
		return nil, nil
	}

	tag := c.fallback
	if requested, err := language.Parse(locale); err == nil {
		if _, idx, conf := c.matcher.Match(requested); conf != language.No {
			tag = c.tags[idx]
		}
	}
	return append([]captcha.Riddle(nil), c.riddles[tag]...), nil
}

// Locales lists loaded locales.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.tags))
	for i, t := range c.tags {
		out[i] = t.String()
	}
	sort.Strings(out)
	return out
}
