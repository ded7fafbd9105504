// Package prompt handles interactive prompts with no-prompt mode support.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrCancelled is returned when the user aborts a prompt (EOF or ctrl-d).
var ErrCancelled = errors.New("prompt cancelled")

// Confirm asks a yes/no question on Writer and reads the answer from Reader.
// In no-prompt mode (--no-prompt / -y) the question is skipped and the
// answer is yes.
type Confirm struct {
	Question string
	Reader   io.Reader
	Writer   io.Writer
	NoPrompt bool
}

// Run executes the confirmation prompt. Empty input and anything other
// than y/yes count as no.
func (c *Confirm) Run() (bool, error) {
	if c.NoPrompt {
		return true, nil
	}

	writer := c.Writer
	if writer == nil {
		writer = io.Discard
	}

	_, _ = fmt.Fprintf(writer, "%s (y/N): ", c.Question)
	scanner := bufio.NewScanner(c.Reader)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return false, err
		}
		return false, ErrCancelled
	}

	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes", nil
}
