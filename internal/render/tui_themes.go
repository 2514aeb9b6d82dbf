package render

import (
	"github.com/charmbracelet/lipgloss"
)

// TUITheme is the color scheme of the chat view
type TUITheme struct {
	Name        string
	Description string

	Border lipgloss.Color

	User    lipgloss.Color // user bubbles
	Answer  lipgloss.Color // answer label and header
	Sources lipgloss.Color // citation list
	Warning lipgloss.Color // thinking indicator
	Error   lipgloss.Color // error and refusal turns

	Text    lipgloss.Color
	TextDim lipgloss.Color
}

var (
	// TokyoNightTheme is the default
	TokyoNightTheme = TUITheme{
		Name:        "tokyonight",
		Description: "Tokyo Night - dark with blue accents",
		Border:      lipgloss.Color("#414868"),
		User:        lipgloss.Color("#7aa2f7"),
		Answer:      lipgloss.Color("#9ece6a"),
		Sources:     lipgloss.Color("#bb9af7"),
		Warning:     lipgloss.Color("#e0af68"),
		Error:       lipgloss.Color("#f7768e"),
		Text:        lipgloss.Color("#c0caf5"),
		TextDim:     lipgloss.Color("#565f89"),
	}

	CatppuccinMochaTheme = TUITheme{
		Name:        "catppuccin",
		Description: "Catppuccin Mocha - warm pastels",
		Border:      lipgloss.Color("#45475a"),
		User:        lipgloss.Color("#89b4fa"),
		Answer:      lipgloss.Color("#a6e3a1"),
		Sources:     lipgloss.Color("#cba6f7"),
		Warning:     lipgloss.Color("#f9e2af"),
		Error:       lipgloss.Color("#f38ba8"),
		Text:        lipgloss.Color("#cdd6f4"),
		TextDim:     lipgloss.Color("#6c7086"),
	}

	NordTheme = TUITheme{
		Name:        "nord",
		Description: "Nord - cool arctic tones",
		Border:      lipgloss.Color("#4c566a"),
		User:        lipgloss.Color("#88c0d0"),
		Answer:      lipgloss.Color("#a3be8c"),
		Sources:     lipgloss.Color("#b48ead"),
		Warning:     lipgloss.Color("#ebcb8b"),
		Error:       lipgloss.Color("#bf616a"),
		Text:        lipgloss.Color("#eceff4"),
		TextDim:     lipgloss.Color("#7b88a1"),
	}

	// LightTheme suits light terminal backgrounds
	LightTheme = TUITheme{
		Name:        "light",
		Description: "Light - for light terminals",
		Border:      lipgloss.Color("#c0c0c0"),
		User:        lipgloss.Color("#1f6feb"),
		Answer:      lipgloss.Color("#1a7f37"),
		Sources:     lipgloss.Color("#8250df"),
		Warning:     lipgloss.Color("#9a6700"),
		Error:       lipgloss.Color("#cf222e"),
		Text:        lipgloss.Color("#24292f"),
		TextDim:     lipgloss.Color("#6e7781"),
	}
)

// GetTUIThemeByName returns a theme by name
func GetTUIThemeByName(name string) (TUITheme, bool) {
	for _, t := range AvailableTUIThemes() {
		if t.Name == name {
			return t, true
		}
	}
	return TUITheme{}, false
}

// ResolveTUITheme returns the named theme, or the default for unknown names
func ResolveTUITheme(name string) TUITheme {
	if t, ok := GetTUIThemeByName(name); ok {
		return t
	}
	return TokyoNightTheme
}

// AvailableTUIThemes lists the built-in themes, default first
func AvailableTUIThemes() []TUITheme {
	return []TUITheme{
		TokyoNightTheme,
		CatppuccinMochaTheme,
		NordTheme,
		LightTheme,
	}
}

// TUIThemeNames returns the theme names for selection
func TUIThemeNames() []string {
	themes := AvailableTUIThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
