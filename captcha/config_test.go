package captcha

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leeforge/captchakit/errors"
	"github.com/stretchr/testify/require"
)

func TestResolveGroup_Defaults(t *testing.T) {
	cfg, err := ResolveGroup(Groups{DefaultGroup: {}}, DefaultGroup)
	require.NoError(t, err)

	require.Equal(t, StyleBasic, cfg.Style)
	require.Equal(t, 150, cfg.Width)
	require.Equal(t, 50, cfg.Height)
	require.Equal(t, 4, cfg.Complexity)
	require.Equal(t, "captcha", cfg.Namespace)
	require.Equal(t, "en", cfg.Locale)
	require.False(t, cfg.Promote.Enabled)
}

func TestResolveGroup_ShallowMergeOverDefault(t *testing.T) {
	groups := Groups{
		DefaultGroup: {"style": "math", "complexity": 6, "promote": 5, "renderer": map[string]any{"noise": 3}},
		"login":      {"complexity": "2", "session_namespace": "login_captcha", "renderer": map[string]any{"color": "red"}},
	}

	cfg, err := ResolveGroup(groups, "login")
	require.NoError(t, err)

	require.Equal(t, StyleMath, cfg.Style)
	require.Equal(t, 2, cfg.Complexity)
	require.Equal(t, "login_captcha", cfg.Namespace)
	require.Equal(t, PromoteAfter(5), cfg.Promote)
	require.Equal(t, map[string]any{"color": "red"}, cfg.Renderer, "nested maps are replaced, not merged")

	base, err := ResolveGroup(groups, DefaultGroup)
	require.NoError(t, err)
	require.Equal(t, 6, base.Complexity)
}

func TestResolveGroup_Errors(t *testing.T) {
	tests := []struct {
		name   string
		groups Groups
		group  string
		code   string
	}{
		{"missing default", Groups{"login": {}}, "login", errors.CodeGroupNotFound},
		{"unknown group", Groups{DefaultGroup: {}}, "signup", errors.CodeGroupNotFound},
		{"zero complexity", Groups{DefaultGroup: {"complexity": 0}}, DefaultGroup, errors.CodeConfigInvalid},
		{"promote true", Groups{DefaultGroup: {"promote": true}}, DefaultGroup, errors.CodeConfigInvalid},
		{"promote zero", Groups{DefaultGroup: {"promote": 0}}, DefaultGroup, errors.CodeConfigInvalid},
		{"missing background", Groups{DefaultGroup: {"background": "/nonexistent/bg.png"}}, DefaultGroup, errors.CodeAssetNotFound},
		{"missing font", Groups{DefaultGroup: {"fontpath": t.TempDir(), "fonts": []any{"nope.ttf"}}}, DefaultGroup, errors.CodeAssetNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveGroup(tt.groups, tt.group)
			require.Error(t, err)
			require.True(t, errors.IsType(err, errors.ErrorTypeConfig), "want config error, got %v", err)
			require.Equal(t, tt.code, errors.FromError(err).Code)
		})
	}
}

func TestResolveGroup_AssetsMadeAbsolute(t *testing.T) {
	dir := t.TempDir()
	bg := filepath.Join(dir, "bg.png")
	require.NoError(t, os.WriteFile(bg, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.ttf"), []byte("x"), 0o644))

	cfg, err := ResolveGroup(Groups{DefaultGroup: {
		"background": bg,
		"fontpath":   dir,
		"fonts":      "a.ttf",
		"promote":    false,
	}}, DefaultGroup)
	require.NoError(t, err)

	require.Equal(t, bg, cfg.Background)
	require.Equal(t, []string{filepath.Join(dir, "a.ttf")}, cfg.FontFiles())
	require.Equal(t, Disabled, cfg.Promote)
}

func TestParseGroups(t *testing.T) {
	groups, err := ParseGroups(map[string]any{
		"default": map[string]any{"style": "math"},
		"empty":   nil,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"default", "empty"}, groups.Names())

	_, err = ParseGroups(map[string]any{"default": "math"})
	require.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		in      any
		want    Threshold
		wantErr bool
	}{
		{nil, Disabled, false},
		{false, Disabled, false},
		{"false", Disabled, false},
		{3, PromoteAfter(3), false},
		{int64(7), PromoteAfter(7), false},
		{float64(2), PromoteAfter(2), false},
		{"10", PromoteAfter(10), false},
		{true, Disabled, true},
		{2.5, Disabled, true},
		{"often", Disabled, true},
	}
	for _, tt := range tests {
		got, err := ParseThreshold(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseThreshold(%v) = (%+v, %v)", tt.in, got, err)
		}
	}
}
