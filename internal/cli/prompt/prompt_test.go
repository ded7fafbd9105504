package prompt_test

import (
	"errors"
	"strings"
	"testing"

	"tuido/internal/cli/prompt"
)

// TestConfirmAnswers covers the accepted yes spellings and the no default.
func TestConfirmAnswers(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"n\n", false},
		{"\n", false},
		{"whatever\n", false},
	}
	for _, tc := range cases {
		var out strings.Builder
		c := &prompt.Confirm{
			Question: "Apply?",
			Reader:   strings.NewReader(tc.input),
			Writer:   &out,
		}
		got, err := c.Run()
		if err != nil {
			t.Errorf("input %q: unexpected error %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("input %q: expected %v, got %v", tc.input, tc.want, got)
		}
		if !strings.Contains(out.String(), "Apply? (y/N): ") {
			t.Errorf("input %q: prompt not written, got %q", tc.input, out.String())
		}
	}
}

// TestConfirmNoPromptMode verifies --no-prompt answers yes without reading.
func TestConfirmNoPromptMode(t *testing.T) {
	c := &prompt.Confirm{Question: "Apply?", NoPrompt: true}
	got, err := c.Run()
	if err != nil || !got {
		t.Errorf("expected silent yes in no-prompt mode, got %v/%v", got, err)
	}
}

// TestConfirmEOF verifies closed input reports cancellation.
func TestConfirmEOF(t *testing.T) {
	c := &prompt.Confirm{Question: "Apply?", Reader: strings.NewReader("")}
	_, err := c.Run()
	if !errors.Is(err, prompt.ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
}
