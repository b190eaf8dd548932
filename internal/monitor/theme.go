package monitor

import (
	"fmt"
	"sort"
)

// Theme identifies a visual theme of the rendered UI.
type Theme string

const (
	ThemeLight        Theme = "light"
	ThemeDark         Theme = "dark"
	ThemeOLED         Theme = "oled"
	ThemeEInk         Theme = "eink"
	ThemeHighContrast Theme = "high-contrast"
)

// themeBaselineW maps each theme to its assumed idle display wattage.
// The table is the fixed offset in the power formula; selecting a theme
// never mutates it.
var themeBaselineW = map[Theme]float64{
	ThemeLight:        12,
	ThemeDark:         9,
	ThemeOLED:         6,
	ThemeEInk:         4,
	ThemeHighContrast: 11,
}

// DefaultBasePowerW is the fallback baseline for unknown themes.
const DefaultBasePowerW = 10

// ParseTheme validates a theme identifier.
func ParseTheme(s string) (Theme, error) {
	if _, ok := themeBaselineW[Theme(s)]; !ok {
		return "", fmt.Errorf("unknown theme %q", s)
	}
	return Theme(s), nil
}

// Themes returns the known theme identifiers in stable order.
func Themes() []Theme {
	out := make([]Theme, 0, len(themeBaselineW))
	for t := range themeBaselineW {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// BaselineWatts returns the idle wattage for a theme, falling back to the
// supplied default when the theme is unknown.
func BaselineWatts(theme Theme, fallback float64) float64 {
	if w, ok := themeBaselineW[theme]; ok {
		return w
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultBasePowerW
}
