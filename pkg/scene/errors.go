package scene

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotReady is returned while the heavy collaborators are still loading.
	ErrNotReady = errors.New("scene: models not loaded yet, try again shortly")

	// ErrEmptyInput is returned when a request carries no text.
	ErrEmptyInput = errors.New("scene: no text provided")

	// ErrLoadFailed wraps a fatal collaborator initialization failure.
	ErrLoadFailed = errors.New("scene: model loading failed")
)

// UnsupportedLanguageError rejects a request language before any model runs
type UnsupportedLanguageError struct {
	Lang      string
	Supported []string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language '%s'. Supported: %s", e.Lang, strings.Join(e.Supported, ", "))
}

// TranslationError reports a translation collaborator failure
type TranslationError struct {
	Lang string
	Err  error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation failed [%s]: %v", e.Lang, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// ProcessingError reports a collaborator failure at a pipeline stage
type ProcessingError struct {
	Stage string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// MalformedTripleError marks a generated relation string that does not split
// into subject, relation and object. It is filtered, never surfaced.
type MalformedTripleError struct {
	Raw    string
	Fields int
}

func (e *MalformedTripleError) Error() string {
	return fmt.Sprintf("malformed triple %q: expected 3 fields, got %d", e.Raw, e.Fields)
}

// IsRetriable reports whether the caller may retry the same request later
func IsRetriable(err error) bool {
	return errors.Is(err, ErrNotReady)
}

// IsValidation reports whether err was raised by input validation
func IsValidation(err error) bool {
	var langErr *UnsupportedLanguageError
	return errors.Is(err, ErrEmptyInput) || errors.As(err, &langErr)
}
