package locale

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leeforge/captchakit/captcha"
	"github.com/leeforge/captchakit/errors"
	"github.com/stretchr/testify/require"
)

func TestDefault_BuiltinLocales(t *testing.T) {
	c := Default()
	require.Equal(t, []string{"en", "fr"}, c.Locales())

	en, err := c.Riddles("en")
	require.NoError(t, err)
	require.Contains(t, en, captcha.Riddle{Prompt: "Are you a robot? (yes or no)", Answer: "no"})
}

func TestCatalog_Matching(t *testing.T) {
	c := Default()

	tests := []struct {
		locale string
		answer string
	}{
		{"fr-CA", "oui"},
		{"en-GB", "yes"},
		{"ja", "yes"},
		{"not a locale!", "yes"},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			rs, err := c.Riddles(tt.locale)
			require.NoError(t, err)
			require.NotEmpty(t, rs)
			require.Equal(t, tt.answer, rs[0].Answer)
		})
	}
}

func TestCatalog_LoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "de.yml"), []byte(`
riddles:
  - question: "Sind Sie ein Roboter? (ja oder nein)"
    answer: "nein"
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	c, err := NewCatalog("de")
	require.NoError(t, err)
	require.NoError(t, c.LoadDir(dir))

	rs, err := c.Riddles("de-AT")
	require.NoError(t, err)
	require.Equal(t, []captcha.Riddle{{Prompt: "Sind Sie ein Roboter? (ja oder nein)", Answer: "nein"}}, rs)

	// the catalog drives the riddle generator
	g, err := captcha.NewRiddleGenerator(rs, nil)
	require.NoError(t, err)
	ch, err := g.Generate(1)
	require.NoError(t, err)
	require.Equal(t, "nein", ch.Answer)
}

func TestCatalog_Errors(t *testing.T) {
	c, err := NewCatalog("en")
	require.NoError(t, err)

	rs, err := c.Riddles("en")
	require.NoError(t, err)
	require.Empty(t, rs, "empty catalog yields no riddles")

	err = c.LoadDir(filepath.Join(t.TempDir(), "missing"))
	require.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	err = c.Parse("en", []byte("riddles: [{question: only}]"))
	require.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	err = c.Parse("en", []byte("riddles: {"))
	require.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = NewCatalog("??")
	require.Error(t, err)
}
