package main

import (
	"fmt"
	"time"

	"github.com/leeforge/captchakit/captcha"
	"github.com/leeforge/captchakit/config"
	"github.com/leeforge/captchakit/logging"
	limiter "github.com/leeforge/captchakit/middleware"
	"github.com/leeforge/captchakit/redis_client"
)

const (
	driverMemory = "memory"
	driverRedis  = "redis"
)

// AppConfig 服务配置，captcha 节点单独解析为分组
type AppConfig struct {
	Server    ServerConfig            `mapstructure:"server"`
	Log       logging.Config          `mapstructure:"log"`
	Session   SessionConfig           `mapstructure:"session"`
	Redis     redis_client.Config     `mapstructure:"redis"`
	Riddles   RiddlesConfig           `mapstructure:"riddles"`
	RateLimit limiter.RateLimitConfig `mapstructure:"rate-limit"`
	Captcha   map[string]any          `mapstructure:"-"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" default:":8080"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout" default:"5s"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout" default:"10s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout" default:"15s"`
}

type SessionConfig struct {
	Driver      string        `mapstructure:"driver" default:"memory"`
	TTL         time.Duration `mapstructure:"ttl" default:"24h"`
	Cleanup     time.Duration `mapstructure:"cleanup" default:"10m"`
	CookieName  string        `mapstructure:"cookie-name" default:"captcha_session"`
	Secret      string        `mapstructure:"secret"`
	Secure      bool          `mapstructure:"secure"`
	RedisPrefix string        `mapstructure:"redis-prefix" default:"captcha:session:"`
}

type RiddlesConfig struct {
	// Path is a directory of <locale>.yaml files added on top of the built-in catalog.
	Path     string `mapstructure:"path"`
	Fallback string `mapstructure:"fallback" default:"en"`
}

// loadConfig reads the layered files under opts.BasePath. The raw config is
// returned for hot reload.
func loadConfig(opts config.Options) (*AppConfig, *config.Config, error) {
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, nil, err
	}

	app := AppConfig{Log: logging.DefaultConfig()}
	if err := cfg.BindWithDefaults(&app); err != nil {
		return nil, nil, err
	}
	app.Captcha = cfg.Sub("captcha")

	switch app.Session.Driver {
	case driverMemory, driverRedis:
	default:
		return nil, nil, fmt.Errorf("❌ unknown session driver %q", app.Session.Driver)
	}
	// 开发模式允许空密钥，其余环境必须配置
	if app.Session.Secret == "" && config.Mode() != config.DevMode {
		return nil, nil, fmt.Errorf("❌ session.secret is required in %s mode", config.Mode())
	}
	return &app, cfg, nil
}

// groups 未配置 captcha 节点时只有一个默认分组
func (c *AppConfig) groups() (captcha.Groups, error) {
	if len(c.Captcha) == 0 {
		return captcha.Groups{captcha.DefaultGroup: {}}, nil
	}
	return captcha.ParseGroups(c.Captcha)
}
