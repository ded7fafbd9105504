// Package utils provides the logger and error helpers shared across the
// application.
package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// ErrRemoteNotConfigured returns an error when the document has no usable
// remote table settings.
func ErrRemoteNotConfigured(missing []string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("remote table not configured (missing: %s)", strings.Join(missing, ", ")),
		Suggestion: "Add a 'remote:' mapping to the TODO.md front matter; 'tuido create' scaffolds one",
	}
}

// ErrNoCredentials returns an error when the bot secret cannot be found.
func ErrNoCredentials(appID string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("no bot secret found for app %q", appID),
		Suggestion: "Store it with 'tuido config secret' or set TUIDO_FEISHU_BOT_SECRET",
	}
}

// ErrDocumentNotFound returns an error for a missing task document.
func ErrDocumentNotFound(path string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("task document not found: %s", path),
		Suggestion: "Run 'tuido create' to scaffold a TODO.md in the current directory",
	}
}

// IsSuggestionError reports whether err carries a suggestion.
func IsSuggestionError(err error) bool {
	var target *ErrorWithSuggestion
	return errors.As(err, &target)
}
