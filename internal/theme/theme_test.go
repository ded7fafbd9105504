package theme_test

import (
	"testing"

	"tuido/internal/theme"
)

// TestGetKnownThemes verifies every listed theme resolves to itself.
func TestGetKnownThemes(t *testing.T) {
	for _, name := range theme.Names() {
		th := theme.Get(name)
		if th.Name != name {
			t.Errorf("Get(%q) returned theme %q", name, th.Name)
		}
		if th.Accent == "" || th.Text == "" {
			t.Errorf("theme %q has unset colors", name)
		}
	}
}

// TestGetUnknownFallsBack verifies unknown names resolve to the default.
func TestGetUnknownFallsBack(t *testing.T) {
	th := theme.Get("no-such-theme")
	if th.Name != theme.Default {
		t.Errorf("expected fallback to %q, got %q", theme.Default, th.Name)
	}
}
