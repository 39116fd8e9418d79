package domain

// Theme is the presentation colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// ParseTheme falls back to light for anything that is not a known theme.
func ParseTheme(value string) Theme {
	if theme := Theme(value); theme.Valid() {
		return theme
	}
	return ThemeLight
}
