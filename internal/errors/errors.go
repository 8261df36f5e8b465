// Package errors classifies the failures docwatch reports so the CLI can map
// them to messages and exit codes.
package errors

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Category groups errors by who has to act on them.
type Category string

const (
	// CategoryValidation covers bad command lines: unknown options, mixed
	// toolchains, nothing to watch.
	CategoryValidation Category = "validation"
	// CategoryConfig covers an unreadable or invalid configuration file.
	CategoryConfig Category = "config"
	// CategoryFileSystem covers watched files and directories that cannot
	// be read or created. Only the affected session stops.
	CategoryFileSystem Category = "filesystem"
	// CategoryInternal covers bugs, such as a panicking session.
	CategoryInternal Category = "internal"
)

// DocWatchError is a categorised error with optional structured context.
type DocWatchError struct {
	Category Category
	Message  string
	Cause    error
	Context  map[string]any
}

func (e *DocWatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *DocWatchError) Unwrap() error { return e.Cause }

// WithContext attaches a key/value pair and returns e.
func (e *DocWatchError) WithContext(key string, value any) *DocWatchError {
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	e.Context[key] = value
	return e
}

// ContextKeys returns the context keys in sorted order.
func (e *DocWatchError) ContextKeys() []string {
	return slices.Sorted(maps.Keys(e.Context))
}

// New creates an error without a cause.
func New(category Category, message string) *DocWatchError {
	return &DocWatchError{Category: category, Message: message}
}

// Wrap creates an error caused by err.
func Wrap(err error, category Category, message string) *DocWatchError {
	return &DocWatchError{Category: category, Message: message, Cause: err}
}

// As returns the first DocWatchError in err's chain.
func As(err error) (*DocWatchError, bool) {
	var dwe *DocWatchError
	if errors.As(err, &dwe) {
		return dwe, true
	}
	return nil, false
}

// IsCategory reports whether err carries a DocWatchError of category.
func IsCategory(err error, category Category) bool {
	dwe, ok := As(err)
	return ok && dwe.Category == category
}
