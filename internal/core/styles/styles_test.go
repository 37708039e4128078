package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeNames(t *testing.T) {
	assert.Equal(t, []string{"gruvbox", "tokyo-night"}, ThemeNames())
}

func TestSetTheme_UpdatesGlamourStyle(t *testing.T) {
	t.Cleanup(func() { SetTheme(themes[DefaultTheme]) })

	p, ok := GetPalette("gruvbox")
	require.True(t, ok)
	SetTheme(p)

	cfg := GlamourStyle()
	require.NotNil(t, cfg.H2.Color)
	assert.Equal(t, "#83a598", *cfg.H2.Color)
	assert.Equal(t, "#ebdbb2", *cfg.Document.Color)
}

func TestGetPalette_Unknown(t *testing.T) {
	_, ok := GetPalette("solarized")
	assert.False(t, ok)
}
