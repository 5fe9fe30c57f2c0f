package session

import (
	"fmt"

	"github.com/mesh-intelligence/storefront/pkg/types"
)

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Theme persists the display theme.
type Theme struct {
	kv types.KeyValue
}

// NewTheme creates a theme store over kv.
func NewTheme(kv types.KeyValue) *Theme {
	return &Theme{kv: kv}
}

// Get returns the stored theme, defaulting to light. Unknown stored values
// also read as light.
func (t *Theme) Get() (string, error) {
	v, _, err := t.kv.GetItem(KeyTheme)
	if err != nil {
		return "", err
	}
	if v != ThemeDark {
		return ThemeLight, nil
	}
	return ThemeDark, nil
}

// Set stores theme, which must be light or dark.
func (t *Theme) Set(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("%w: %q", types.ErrInvalidTheme, theme)
	}
	return t.kv.SetItem(KeyTheme, theme)
}
