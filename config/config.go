package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Options controls where configuration files are looked up.
type Options struct {
	BasePath  string
	FileName  string
	FileType  string
	EnvPrefix string
	Watch     bool
	OnChange  func(e fsnotify.Event)
}

func DefaultOptions() Options {
	basePath := os.Getenv("CONFIG_PATH")
	if basePath == "" {
		basePath = "config"
	}

	return Options{
		BasePath: basePath,
		FileName: "config",
		FileType: "yaml",
		Watch:    Mode() == DevMode,
	}
}

// Config is a layered view over every configuration file found for the
// current environment mode, with environment variables on top.
type Config struct {
	v         *viper.Viper
	opts      Options
	files     []string
	watchOnce sync.Once
	mu        sync.RWMutex
}

// Load reads config.yaml, config.local.yaml, config.<mode>.yaml and
// config.<mode>.local.yaml (plus alias spellings) in that order.
func Load(opts Options) (*Config, error) {
	if opts.FileType == "" {
		opts.FileType = "yaml"
	}
	if opts.FileName == "" {
		opts.FileName = "config"
	}

	files := layerFiles(opts, Mode())
	if len(files) == 0 {
		return nil, fmt.Errorf("❌ No valid configuration files found in path: %s", opts.BasePath)
	}

	v, err := mergeLayers(files, opts)
	if err != nil {
		return nil, err
	}

	return &Config{v: v, opts: opts, files: files}, nil
}

func mergeLayers(files []string, opts Options) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(opts.FileType)

	for _, file := range files {
		layer := viper.New()
		layer.SetConfigFile(file)
		if err := layer.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("❌ Error reading config file %s: %w", file, err)
		}
		if err := v.MergeConfigMap(layer.AllSettings()); err != nil {
			return nil, fmt.Errorf("❌ Error merging config file %s: %w", file, err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.AutomaticEnv()
	applyEnvOverrides(v, opts.EnvPrefix)

	return v, nil
}

// applyEnvOverrides lets CAPTCHA_DEFAULT_COMPLEXITY override captcha.default.complexity
// for keys that exist in the files, which AutomaticEnv alone does not do for Unmarshal.
func applyEnvOverrides(v *viper.Viper, prefix string) {
	replacer := strings.NewReplacer(".", "_", "-", "_")
	for _, key := range v.AllKeys() {
		envKey := strings.ToUpper(replacer.Replace(key))
		if prefix != "" {
			envKey = strings.ToUpper(prefix) + "_" + envKey
		}
		if val, ok := os.LookupEnv(envKey); ok && val != "" {
			v.Set(key, val)
		}
	}
}

func layerFiles(opts Options, mode EnvMode) []string {
	names := []string{opts.FileName, opts.FileName + ".local"}
	for _, alias := range mode.aliases() {
		names = append(names, opts.FileName+"."+alias, opts.FileName+"."+alias+".local")
	}

	seen := make(map[string]struct{}, len(names))
	var files []string
	for _, name := range names {
		file := filepath.Join(opts.BasePath, name+"."+opts.FileType)
		if _, dup := seen[file]; dup {
			continue
		}
		seen[file] = struct{}{}
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			files = append(files, file)
		}
	}
	return files
}

// Files returns the files that were merged, lowest priority first.
func (c *Config) Files() []string {
	return append([]string(nil), c.files...)
}

// Bind unmarshals the whole configuration into target.
func (c *Config) Bind(target any) error {
	if c == nil || c.v == nil {
		return fmt.Errorf("❌ Config instance is nil")
	}
	if target == nil {
		return fmt.Errorf("❌ Target instance is nil")
	}

	c.mu.RLock()
	err := c.v.Unmarshal(target)
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("❌ Failed to unmarshal config (path: %s, file: %s.%s): %w",
			c.opts.BasePath, c.opts.FileName, c.opts.FileType, err)
	}

	c.startWatch()
	return nil
}

// BindWithDefaults applies `default` struct tags, then the files, then
// fills any field the files left zero.
func (c *Config) BindWithDefaults(target any) error {
	if err := defaults.Set(target); err != nil {
		return fmt.Errorf("❌ Failed to set defaults: %w", err)
	}
	if err := c.Bind(target); err != nil {
		return err
	}
	if err := defaults.Set(target); err != nil {
		return fmt.Errorf("❌ Failed to set defaults after unmarshal: %w", err)
	}
	return nil
}

// Sub returns the raw nested settings under key, or nil when absent.
func (c *Config) Sub(key string) map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetStringMap(key)
}

func (c *Config) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.Get(key)
}

func (c *Config) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.Set(key, value)
}

// startWatch reloads the merged layers whenever one of the files changes.
// Bound structs are not updated in place; OnChange decides what to do.
func (c *Config) startWatch() {
	if !c.opts.Watch {
		return
	}
	c.watchOnce.Do(func() {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			fmt.Printf("❌ Config watch error: %v\n", err)
			return
		}
		for _, file := range c.files {
			_ = watcher.Add(file)
		}
		go c.watchLoop(watcher)
	})
}

func (c *Config) watchLoop(watcher *fsnotify.Watcher) {
	defer watcher.Close()
	for {
		select {
		case e, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
				continue
			}
			v, err := mergeLayers(c.files, c.opts)
			if err != nil {
				fmt.Printf("❌ Config reload error: %v\n", err)
				continue
			}
			c.mu.Lock()
			c.v = v
			c.mu.Unlock()
			if c.opts.OnChange != nil {
				c.opts.OnChange(e)
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
