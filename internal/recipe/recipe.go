// Package recipe holds the resolved, immutable configuration of one watch
// session and the option handling shared by all toolchains.
package recipe

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docwatch/internal/metrics"
	"git.home.luguber.info/inful/docwatch/internal/pipeline"
	"git.home.luguber.info/inful/docwatch/internal/proc"
	"git.home.luguber.info/inful/docwatch/internal/snapshot"
)

// Common is the toolchain-independent part of a recipe.
type Common struct {
	Toolchain  string
	File       string
	ExtraFiles []string
	AuxDir     string
	BackupDir  string
	Slow       bool
	// DisableViewer suppresses launching the viewer after the first build.
	DisableViewer bool
	// Make replaces the toolchain steps with a single make invocation.
	Make bool
	// Output is the artifact the build produces.
	Output string
	// ViewTarget is the file handed to the viewer; empty when there is none.
	ViewTarget string
}

// Plan is a resolved session configuration that can assemble its pipeline.
type Plan interface {
	Recipe() Common
	Assemble(env Env) (*pipeline.Pipeline, error)
}

// Env carries the collaborators a pipeline is assembled with.
type Env struct {
	Runner          proc.Runner
	Recorder        metrics.Recorder
	Logger          *slog.Logger
	SnapshotOptions []snapshot.Option
}

// WithDefaults fills unset collaborators.
func (e Env) WithDefaults() Env {
	if e.Runner == nil {
		e.Runner = proc.NewExecRunner()
	}
	if e.Recorder == nil {
		e.Recorder = metrics.NoopRecorder{}
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	return e
}

// WatchFiles snapshots the primary file followed by the extra files.
func (e Env) WatchFiles(r Common) ([]pipeline.Watched, error) {
	opts := append([]snapshot.Option{snapshot.WithRetryHook(e.Recorder.IncReadRetry)}, e.SnapshotOptions...)
	paths := append([]string{r.File}, r.ExtraFiles...)
	watched := make([]pipeline.Watched, 0, len(paths))
	for _, p := range paths {
		f, err := snapshot.Open(p, opts...)
		if err != nil {
			return nil, err
		}
		watched = append(watched, f)
	}
	return watched, nil
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return os.ExpandEnv(p)
}

// DefaultAuxDir returns /tmp/$USER-<suffix>.
func DefaultAuxDir(suffix string) string {
	return os.ExpandEnv("/tmp/$USER-" + suffix)
}

// ReplaceLast replaces the rightmost occurrence of old in s.
func ReplaceLast(s, old, replacement string) string {
	i := strings.LastIndex(s, old)
	if i < 0 {
		return s
	}
	return s[:i] + replacement + s[i+len(old):]
}

// OutputName places the artifact for source in dir, swapping the rightmost
// occurrence of srcExt in the file name for dstExt.
func OutputName(dir, source, srcExt, dstExt string) string {
	return filepath.Join(dir, filepath.Base(ReplaceLast(source, srcExt, dstExt)))
}

// ViewTarget picks the file the viewer opens: the artifact in the auxiliary
// directory, or the backup copy in slow mode.
func ViewTarget(r Common) string {
	if r.Slow {
		return filepath.Join(r.BackupDir, filepath.Base(r.Output))
	}
	return r.Output
}
