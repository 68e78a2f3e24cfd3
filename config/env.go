package config

import (
	"os"
	"strings"
)

// EnvModeKey selects the configuration overlay (config.<mode>.yaml).
const EnvModeKey = "GO_ENV_MODE"

type EnvMode string

const (
	DevMode  EnvMode = "development"
	ProMode  EnvMode = "production"
	TestMode EnvMode = "test"
)

// ParseEnvMode normalizes common spellings; unknown values mean development.
func ParseEnvMode(env string) EnvMode {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "pro":
		return ProMode
	case "test", "testing":
		return TestMode
	default:
		return DevMode
	}
}

// Mode reads the current mode from the environment.
func Mode() EnvMode {
	return ParseEnvMode(os.Getenv(EnvModeKey))
}

// aliases lists the extra file suffixes accepted for a mode.
func (m EnvMode) aliases() []string {
	switch m {
	case DevMode:
		return []string{"dev", "development"}
	case ProMode:
		return []string{"pro", "prod", "production"}
	case TestMode:
		return []string{"test"}
	}
	return nil
}
