package recipe

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docwatch/internal/logfields"
	"git.home.luguber.info/inful/docwatch/internal/proc"
)

// CommandStep is a build step that runs one external command. A failing
// exit status is only logged at debug level; the tool prints its own
// diagnostics to the terminal. A running command outlives cancellation of
// the session context.
type CommandStep struct {
	StepName string
	Command  proc.Command
	Runner   proc.Runner
	Logger   *slog.Logger
}

func (s CommandStep) Name() string { return s.StepName }

func (s CommandStep) Run(ctx context.Context) {
	if err := s.Runner.Run(context.WithoutCancel(ctx), s.Command); err != nil {
		s.Logger.Debug("Step command exited with error", logfields.Step(s.StepName), logfields.Error(err))
	}
}

// MakeCommand is the command behind --make.
func MakeCommand() proc.Command {
	return proc.Command{Name: "make"}
}
