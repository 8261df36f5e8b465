// Package pandoc assembles Markdown watch sessions converted with pandoc.
package pandoc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alecthomas/kong"

	derrors "git.home.luguber.info/inful/docwatch/internal/errors"
	"git.home.luguber.info/inful/docwatch/internal/logfields"
	"git.home.luguber.info/inful/docwatch/internal/pipeline"
	"git.home.luguber.info/inful/docwatch/internal/proc"
	"git.home.luguber.info/inful/docwatch/internal/recipe"
)

const (
	Name      = "pandoc"
	Extension = ".md"

	auxSuffix = "Pandoc"
)

// Flags are the command line options of a Markdown session.
type Flags struct {
	Common     recipe.CommonFlags `embed:""`
	Docx       bool               `short:"d" help:"Produce a .docx document (implies --no-pdf)."`
	OutputType string             `short:"t" name:"output-type" placeholder:"EXT" help:"Output file extension passed to pandoc via -o."`
	File       string             `arg:"" optional:"" name:"file.md" help:"Markdown source to watch."`
}

// Recipe is a resolved Markdown session configuration.
type Recipe struct {
	recipe.Common
	Docx       bool
	OutputType string
	// PandocArgs are passed to pandoc before -o.
	PandocArgs []string
}

// Options configure the toolchain defaults.
type Options struct {
	Program    string
	BackupDir  string
	PandocArgs []string
}

// Toolchain resolves Markdown sessions.
type Toolchain struct {
	opts Options
}

// New creates the pandoc toolchain.
func New(opts Options) *Toolchain {
	if opts.Program == "" {
		opts.Program = "docwatch"
	}
	if opts.BackupDir == "" {
		opts.BackupDir = "~/.latex"
	}
	return &Toolchain{opts: opts}
}

func (t *Toolchain) Name() string      { return Name }
func (t *Toolchain) Extension() string { return Extension }

func (t *Toolchain) ValueFlags() recipe.FlagSet {
	return recipe.CommonValueFlags.Merge(recipe.FlagSet{Long: []string{"--output-type"}, Short: "t"})
}

func (t *Toolchain) Usage() string {
	return fmt.Sprintf("Usage: %s [--help|-h] [--auxdir <%s>|-a <%s>] [--docx|-d] [--output-type <ext>|-t <ext>]"+
		" [--files <path>|-f <path>]... [--no-pdf|-D] [--make|-m] [--slow|-S] <file.md>",
		t.opts.Program, recipe.DefaultAuxDir(auxSuffix), recipe.DefaultAuxDir(auxSuffix))
}

// Resolve parses args into a Recipe.
func (t *Toolchain) Resolve(args []string) (recipe.Plan, error) {
	var flags Flags
	err := recipe.Parse(t.opts.Program, &flags, func() bool { return flags.Common.Help }, kong.Vars{
		"auxdir": recipe.DefaultAuxDir(auxSuffix),
	}, t.ValueFlags(), args)
	if err != nil {
		if err == recipe.ErrHelp {
			return nil, err
		}
		return nil, derrors.InvalidArguments(Name, err)
	}
	if flags.File == "" {
		return nil, derrors.InvalidArguments(Name, fmt.Errorf("no %s file given", Extension))
	}

	r := &Recipe{
		Common:     flags.Common.Common(Name, flags.File, t.opts.BackupDir),
		Docx:       flags.Docx,
		OutputType: flags.OutputType,
		PandocArgs: append([]string(nil), t.opts.PandocArgs...),
	}
	r.Output = recipe.OutputName(r.AuxDir, r.File, "md", r.outputExtension())
	if r.Docx {
		r.DisableViewer = true
	} else {
		r.ViewTarget = recipe.ViewTarget(r.Common)
	}
	return r, nil
}

func (r *Recipe) outputExtension() string {
	switch {
	case r.Docx:
		return "docx"
	case r.OutputType != "":
		return r.OutputType
	default:
		return "pdf"
	}
}

func (r *Recipe) Recipe() recipe.Common { return r.Common }

// StepKind enumerates the pandoc build steps.
type StepKind int

const (
	StepConvert StepKind = iota
	StepMake
)

func (k StepKind) String() string {
	switch k {
	case StepConvert:
		return "pandoc"
	case StepMake:
		return "make"
	default:
		return "unknown"
	}
}

// Steps returns the step kinds in execution order.
func (r *Recipe) Steps() []StepKind {
	if r.Make {
		return []StepKind{StepMake}
	}
	return []StepKind{StepConvert}
}

// Assemble snapshots the watched files and builds the pipeline.
func (r *Recipe) Assemble(env recipe.Env) (*pipeline.Pipeline, error) {
	env = env.WithDefaults()
	watched, err := env.WatchFiles(r.Common)
	if err != nil {
		return nil, err
	}
	kinds := r.Steps()
	steps := make([]pipeline.Step, 0, len(kinds))
	for _, k := range kinds {
		steps = append(steps, r.step(k, env))
	}
	return pipeline.New(Name, steps, watched,
		pipeline.WithRecorder(env.Recorder),
		pipeline.WithLogger(env.Logger),
	), nil
}

func (r *Recipe) step(kind StepKind, env recipe.Env) pipeline.Step {
	switch kind {
	case StepConvert:
		args := append(append([]string(nil), r.PandocArgs...), "-o", r.Output, r.File)
		return convertStep{
			file: r.File,
			inner: recipe.CommandStep{
				StepName: kind.String(),
				Command:  proc.Command{Name: "pandoc", Args: args},
				Runner:   env.Runner,
				Logger:   env.Logger,
			},
			logger: env.Logger,
		}
	case StepMake:
		return recipe.CommandStep{StepName: kind.String(), Command: recipe.MakeCommand(), Runner: env.Runner, Logger: env.Logger}
	default:
		panic("pandoc: unknown step kind " + kind.String())
	}
}

// convertStep brackets the pandoc run with progress messages, since pandoc
// itself is silent on success.
type convertStep struct {
	file   string
	inner  recipe.CommandStep
	logger *slog.Logger
}

func (s convertStep) Name() string { return s.inner.Name() }

func (s convertStep) Run(ctx context.Context) {
	s.logger.Info("Started building", logfields.File(s.file))
	s.inner.Run(ctx)
	s.logger.Info("Finished building", logfields.File(s.file))
}
