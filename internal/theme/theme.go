// Package theme defines the color themes for the board UI.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme is one named color set for the board UI.
type Theme struct {
	Name      string
	Border    lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Highlight lipgloss.Color
	Tag       lipgloss.Color
	Priority  lipgloss.Color
}

var themes = map[string]Theme{
	"dracula": {
		Name:      "dracula",
		Border:    lipgloss.Color("#6272a4"),
		Accent:    lipgloss.Color("#bd93f9"),
		Text:      lipgloss.Color("#f8f8f2"),
		Muted:     lipgloss.Color("#6272a4"),
		Highlight: lipgloss.Color("#ff79c6"),
		Tag:       lipgloss.Color("#8be9fd"),
		Priority:  lipgloss.Color("#ffb86c"),
	},
	"nord": {
		Name:      "nord",
		Border:    lipgloss.Color("#4c566a"),
		Accent:    lipgloss.Color("#88c0d0"),
		Text:      lipgloss.Color("#eceff4"),
		Muted:     lipgloss.Color("#4c566a"),
		Highlight: lipgloss.Color("#81a1c1"),
		Tag:       lipgloss.Color("#a3be8c"),
		Priority:  lipgloss.Color("#ebcb8b"),
	},
	"gruvbox": {
		Name:      "gruvbox",
		Border:    lipgloss.Color("#928374"),
		Accent:    lipgloss.Color("#fabd2f"),
		Text:      lipgloss.Color("#ebdbb2"),
		Muted:     lipgloss.Color("#928374"),
		Highlight: lipgloss.Color("#fe8019"),
		Tag:       lipgloss.Color("#83a598"),
		Priority:  lipgloss.Color("#fb4934"),
	},
}

// Default is the fallback theme name.
const Default = "dracula"

// Get returns the named theme, falling back to the default for unknown
// names.
func Get(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[Default]
}

// Names lists the available theme names.
func Names() []string {
	return []string{"dracula", "nord", "gruvbox"}
}
