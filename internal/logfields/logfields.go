package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySession    = "session"
	KeyFile       = "file"
	KeyToolchain  = "toolchain"
	KeyStep       = "step"
	KeyState      = "state"
	KeyTrigger    = "trigger"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyError      = "error"
	KeyURL        = "url"
	KeySubject    = "subject"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Session(id string) slog.Attr     { return slog.String(KeySession, id) }
func File(path string) slog.Attr      { return slog.String(KeyFile, path) }
func Toolchain(name string) slog.Attr { return slog.String(KeyToolchain, name) }
func Step(name string) slog.Attr      { return slog.String(KeyStep, name) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Trigger(t string) slog.Attr      { return slog.String(KeyTrigger, t) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
