package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leeforge/captchakit/captcha"
	"github.com/leeforge/captchakit/config"
	"github.com/leeforge/captchakit/logging"
	limiter "github.com/leeforge/captchakit/middleware"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) config.Options {
	t.Helper()
	t.Setenv(config.EnvModeKey, "test")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return config.Options{BasePath: dir, FileName: "config", FileType: "yaml", EnvPrefix: envPrefix}
}

func TestLoadConfig_Defaults(t *testing.T) {
	opts := writeConfig(t, "server:\n  addr: \":9999\"\nsession:\n  secret: s\n")

	cfg, _, err := loadConfig(opts)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.Server.Addr)
	require.Equal(t, driverMemory, cfg.Session.Driver)
	require.Equal(t, 24*time.Hour, cfg.Session.TTL)
	require.Equal(t, "captcha_session", cfg.Session.CookieName)
	require.Equal(t, "en", cfg.Riddles.Fallback)
	require.Equal(t, 10, cfg.RateLimit.Burst)
	require.True(t, cfg.Log.LogInTerminal)

	groups, err := cfg.groups()
	require.NoError(t, err)
	require.Equal(t, []string{captcha.DefaultGroup}, groups.Names())
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	opts := writeConfig(t, "session:\n  driver: memory\n  secret: s\n")
	t.Setenv("CAPTCHAD_SESSION_DRIVER", "etcd")

	_, _, err := loadConfig(opts)
	require.Error(t, err)
}

func TestLoadConfig_SecretRequiredOutsideDev(t *testing.T) {
	opts := writeConfig(t, "session:\n  driver: memory\n")

	_, _, err := loadConfig(opts)
	require.ErrorContains(t, err, "session.secret")

	t.Setenv(config.EnvModeKey, "production")
	_, _, err = loadConfig(opts)
	require.Error(t, err)

	t.Setenv(config.EnvModeKey, "development")
	cfg, _, err := loadConfig(opts)
	require.NoError(t, err)
	require.Empty(t, cfg.Session.Secret)
}

func TestHotReload_UpdatesRateLimit(t *testing.T) {
	opts := writeConfig(t, "session:\n  secret: s\nrate-limit:\n  rate: 0.001\n  burst: 3\n")
	cfg, raw, err := loadConfig(opts)
	require.NoError(t, err)

	rl := limiter.NewRateLimiter(cfg.RateLimit, nil, nil)
	reload := &hotReload{}

	// not attached yet: ignored
	reload.onChange(fsnotify.Event{Name: "config.yaml"})

	reload.attach(raw, rl, logging.NewNop())
	raw.Set("rate-limit.burst", 1)
	reload.onChange(fsnotify.Event{Name: "config.yaml", Op: fsnotify.Write})

	require.True(t, rl.Allow("k"))
	require.False(t, rl.Allow("k"))
}

func TestSampleConfigBuildsApp(t *testing.T) {
	t.Setenv(config.EnvModeKey, "test")
	cfg, _, err := loadConfig(config.Options{BasePath: "config", FileName: "config", FileType: "yaml"})
	require.NoError(t, err)

	app, err := newApp(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(app.closeStores)

	require.Equal(t, []string{"default", "signup", "support"}, app.service.Groups())

	for _, target := range []string{"/captcha/signup", "/captcha/support", "/captcha/default/image"} {
		rr := httptest.NewRecorder()
		app.server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, rr.Code, "%s: %s", target, rr.Body.String())
	}
}

func TestNewApp_BadGroup(t *testing.T) {
	opts := writeConfig(t, "session:\n  secret: s\ncaptcha:\n  default:\n    style: nope\n")
	cfg, _, err := loadConfig(opts)
	require.NoError(t, err)

	_, err = newApp(context.Background(), cfg, logging.NewNop())
	require.Error(t, err)
}
