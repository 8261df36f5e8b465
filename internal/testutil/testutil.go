// Package testutil holds fakes and fixtures shared by package tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"git.home.luguber.info/inful/docwatch/internal/proc"
)

// RecordingRunner records commands instead of executing them. Every call
// returns Err. Safe for concurrent use.
type RecordingRunner struct {
	Err error

	mu      sync.Mutex
	cmds    []proc.Command
	ctxErrs []error
}

func (r *RecordingRunner) Run(ctx context.Context, c proc.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, c)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	return r.Err
}

// ContextErrors returns ctx.Err() as seen by each call, in call order.
func (r *RecordingRunner) ContextErrors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.ctxErrs...)
}

// Commands returns the recorded commands in call order.
func (r *RecordingRunner) Commands() []proc.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]proc.Command(nil), r.cmds...)
}

// Names returns the program names of the recorded commands.
func (r *RecordingRunner) Names() []string {
	cmds := r.Commands()
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return names
}

// WriteFile creates dir/name with content and returns the path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
