package latex

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docwatch/internal/logfields"
	"git.home.luguber.info/inful/docwatch/internal/pipeline"
	"git.home.luguber.info/inful/docwatch/internal/proc"
	"git.home.luguber.info/inful/docwatch/internal/recipe"
)

// StepKind enumerates the LaTeX build steps.
type StepKind int

const (
	StepCompile StepKind = iota
	StepBiber
	StepSage
	StepBackup
	StepMake
)

func (k StepKind) String() string {
	switch k {
	case StepCompile:
		return "compile"
	case StepBiber:
		return "biber"
	case StepSage:
		return "sage"
	case StepBackup:
		return "backup"
	case StepMake:
		return "make"
	default:
		return "unknown"
	}
}

func (r *Recipe) step(kind StepKind, env recipe.Env) pipeline.Step {
	command := func(c proc.Command) pipeline.Step {
		return recipe.CommandStep{StepName: kind.String(), Command: c, Runner: env.Runner, Logger: env.Logger}
	}
	switch kind {
	case StepCompile:
		return command(proc.Command{
			Name: r.Engine,
			Args: []string{"-output-directory", r.AuxDir, "-interaction=nonstopmode", r.File},
		})
	case StepBiber:
		return command(proc.Command{
			Name: "biber",
			Args: []string{"--output-directory", r.AuxDir, "--input-directory", r.AuxDir, r.jobName()},
		})
	case StepSage:
		return command(proc.Command{Name: "sage", Args: []string{r.sageScript()}, Dir: r.AuxDir})
	case StepBackup:
		return backupStep{src: r.Output, dir: r.BackupDir, logger: env.Logger}
	case StepMake:
		return command(recipe.MakeCommand())
	default:
		panic("latex: unknown step kind " + kind.String())
	}
}

// backupStep copies the produced PDF into the backup directory.
type backupStep struct {
	src    string
	dir    string
	logger *slog.Logger
}

func (s backupStep) Name() string { return StepBackup.String() }

func (s backupStep) Run(context.Context) {
	if err := copyInto(s.src, s.dir); err != nil {
		s.logger.Debug("Backup copy failed", logfields.Path(s.src), logfields.Error(err))
	}
}

func copyInto(src, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(filepath.Join(dir, filepath.Base(src)))
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
