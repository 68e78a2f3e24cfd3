package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Config represents the logger configuration.
type Config struct {
	// Director is the directory where per-level log files are written.
	Director string `mapstructure:"director" json:"director" yaml:"director"`

	// Level is the minimum log level (debug, info, warn, error, dpanic, panic, fatal).
	Level string `mapstructure:"level" json:"level" yaml:"level"`

	// Format is the log format (json or console).
	Format string `mapstructure:"format" json:"format" yaml:"format"`

	// Prefix is prepended to every timestamp.
	Prefix string `mapstructure:"prefix" json:"prefix" yaml:"prefix"`

	// TimeFormat uses Go time layout syntax.
	TimeFormat string `mapstructure:"time-format" json:"timeFormat" yaml:"time-format"`

	// LogInTerminal writes entries to stdout.
	LogInTerminal bool `mapstructure:"log-in-terminal" json:"logInTerminal" yaml:"log-in-terminal"`

	// LogInFile writes entries to rotating files under Director.
	LogInFile bool `mapstructure:"log-in-file" json:"logInFile" yaml:"log-in-file"`

	MaxAge     int  `mapstructure:"max-age" json:"maxAge" yaml:"max-age"`
	MaxSize    int  `mapstructure:"max-size" json:"maxSize" yaml:"max-size"`
	MaxBackups int  `mapstructure:"max-backups" json:"maxBackups" yaml:"max-backups"`
	Compress   bool `mapstructure:"compress" json:"compress" yaml:"compress"`

	// ShowCaller adds caller information to log entries.
	ShowCaller bool `mapstructure:"show-caller" json:"showCaller" yaml:"show-caller"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Director:      "logs",
		Level:         "info",
		Format:        "json",
		TimeFormat:    "2006/01/02 - 15:04:05",
		LogInTerminal: true,
		LogInFile:     false,
		MaxAge:        7,
		MaxSize:       100,
		MaxBackups:    10,
		Compress:      true,
		ShowCaller:    true,
	}
}

// ZapLevel converts the string level to zapcore.Level, defaulting to info.
func (c Config) ZapLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(c.Level)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()

	if c.Level == "" {
		c.Level = d.Level
	}
	if c.Format == "" {
		c.Format = d.Format
	}
	if c.TimeFormat == "" {
		c.TimeFormat = d.TimeFormat
	}
	if c.Director == "" {
		c.Director = d.Director
	}
	if c.MaxAge == 0 {
		c.MaxAge = d.MaxAge
	}
	if c.MaxSize == 0 {
		c.MaxSize = d.MaxSize
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = d.MaxBackups
	}
}
