package watch

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docwatch/internal/logfields"
	"git.home.luguber.info/inful/docwatch/internal/proc"
)

// Viewer opens the produced artifact.
type Viewer interface {
	Open(ctx context.Context, path string)
}

// CommandViewer opens files with an external program such as rifle or
// xdg-open. The program is waited for, but it is never killed when the
// loop's context ends.
type CommandViewer struct {
	Program string
	Runner  proc.Runner
	Logger  *slog.Logger
}

func (v CommandViewer) Open(ctx context.Context, path string) {
	logger := v.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Launching viewer", "viewer", v.Program, logfields.Path(path))
	if err := v.Runner.Run(context.WithoutCancel(ctx), proc.Command{Name: v.Program, Args: []string{path}}); err != nil {
		logger.Debug("Viewer exited with error", logfields.Error(err))
	}
}
