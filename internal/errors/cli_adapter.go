package errors

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/docwatch/internal/logfields"
)

// Exit codes per category. Anything unclassified exits with 1.
var exitCodes = map[Category]int{
	CategoryValidation: 2,
	CategoryConfig:     7,
	CategoryInternal:   10,
	CategoryFileSystem: 11,
}

// CLIErrorAdapter prints errors for humans and picks the exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
}

// NewCLIErrorAdapter creates an adapter writing to stderr. With verbose set
// every error is also logged with its context.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, out: os.Stderr}
}

// WithOutput redirects user-facing messages.
func (a *CLIErrorAdapter) WithOutput(w io.Writer) *CLIErrorAdapter {
	a.out = w
	return a
}

// ExitCodeFor maps err to a process exit code.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if dwe, ok := As(err); ok {
		if code, ok := exitCodes[dwe.Category]; ok {
			return code
		}
	}
	return 1
}

// FormatError renders err as a single line.
func (a *CLIErrorAdapter) FormatError(err error) string {
	dwe, ok := As(err)
	switch {
	case err == nil:
		return ""
	case !ok:
		return fmt.Sprintf("Error: %v", err)
	case a.verbose:
		return dwe.Error()
	case dwe.Cause != nil:
		return fmt.Sprintf("%s: %v", dwe.Message, dwe.Cause)
	default:
		return dwe.Message
	}
}

// Report prints err, logs it unless it is a usage problem, and returns the
// exit code.
func (a *CLIErrorAdapter) Report(err error) int {
	if err == nil {
		return 0
	}
	if a.verbose || !IsCategory(err, CategoryValidation) {
		a.log(err)
	}
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	return a.ExitCodeFor(err)
}

func (a *CLIErrorAdapter) log(err error) {
	dwe, ok := As(err)
	if !ok {
		a.logger.Error("Unclassified error", logfields.Error(err))
		return
	}
	args := []any{"category", string(dwe.Category)}
	for _, k := range dwe.ContextKeys() {
		args = append(args, k, dwe.Context[k])
	}
	if dwe.Cause != nil {
		args = append(args, "cause", dwe.Cause.Error())
	}
	a.logger.Error(dwe.Message, args...)
}
