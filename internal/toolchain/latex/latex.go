// Package latex assembles LaTeX watch sessions: option resolution, the
// closed set of LaTeX build steps, and their order.
package latex

import (
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kong"

	derrors "git.home.luguber.info/inful/docwatch/internal/errors"
	"git.home.luguber.info/inful/docwatch/internal/pipeline"
	"git.home.luguber.info/inful/docwatch/internal/recipe"
)

const (
	// Name identifies the toolchain in logs and metrics.
	Name = "latex"
	// Extension is the source suffix handled by this toolchain.
	Extension = ".tex"

	auxSuffix     = "LaTeX"
	defaultEngine = "pdflatex"
)

// Flags are the command line options of a LaTeX session.
type Flags struct {
	Common  recipe.CommonFlags `embed:""`
	Sagetex bool               `short:"s" help:"Run sage between two compile passes."`
	Biber   bool               `short:"b" help:"Run biber between two compile passes."`
	Engine  string             `short:"e" default:"${engine}" placeholder:"ENGINE" help:"TeX engine binary."`
	File    string             `arg:"" optional:"" name:"file.tex" help:"LaTeX source to watch."`
}

// Recipe is a resolved LaTeX session configuration.
type Recipe struct {
	recipe.Common
	Sagetex bool
	Biber   bool
	Engine  string
}

// Options configure the toolchain defaults.
type Options struct {
	Program   string
	Engine    string
	BackupDir string
}

// Toolchain resolves LaTeX sessions.
type Toolchain struct {
	opts Options
}

// New creates the LaTeX toolchain.
func New(opts Options) *Toolchain {
	if opts.Program == "" {
		opts.Program = "docwatch"
	}
	if opts.Engine == "" {
		opts.Engine = defaultEngine
	}
	if opts.BackupDir == "" {
		opts.BackupDir = "~/.latex"
	}
	return &Toolchain{opts: opts}
}

func (t *Toolchain) Name() string      { return Name }
func (t *Toolchain) Extension() string { return Extension }

// ValueFlags lists the options that take a separate value argument.
func (t *Toolchain) ValueFlags() recipe.FlagSet {
	return recipe.CommonValueFlags.Merge(recipe.FlagSet{Long: []string{"--engine"}, Short: "e"})
}

// Usage returns the one-line usage text.
func (t *Toolchain) Usage() string {
	return fmt.Sprintf("Usage: %s [--help|-h] [--sagetex|-s] [--biber|-b]"+
		" [--auxdir <%s>|-a <%s>] [--engine <%s>|-e <%s>]"+
		" [--files <path>|-f <path>]... [--no-pdf|-D] [--make|-m] [--slow|-S] <file.tex>",
		t.opts.Program, recipe.DefaultAuxDir(auxSuffix), recipe.DefaultAuxDir(auxSuffix), t.opts.Engine, t.opts.Engine)
}

// Resolve parses args into a Recipe.
func (t *Toolchain) Resolve(args []string) (recipe.Plan, error) {
	var flags Flags
	err := recipe.Parse(t.opts.Program, &flags, func() bool { return flags.Common.Help }, kong.Vars{
		"auxdir": recipe.DefaultAuxDir(auxSuffix),
		"engine": t.opts.Engine,
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
		Common:  flags.Common.Common(Name, flags.File, t.opts.BackupDir),
		Sagetex: flags.Sagetex,
		Biber:   flags.Biber,
		Engine:  flags.Engine,
	}
	r.Output = recipe.OutputName(r.AuxDir, r.File, "tex", "pdf")
	r.ViewTarget = recipe.ViewTarget(r.Common)
	return r, nil
}

// Recipe returns the shared part of the configuration.
func (r *Recipe) Recipe() recipe.Common { return r.Common }

// Steps returns the step kinds in execution order. A bibliography or sage
// pass forces a second compile so cross references converge; --make
// replaces everything.
func (r *Recipe) Steps() []StepKind {
	if r.Make {
		return []StepKind{StepMake}
	}
	kinds := []StepKind{StepCompile}
	if r.Biber {
		kinds = append(kinds, StepBiber)
	}
	if r.Sagetex {
		kinds = append(kinds, StepSage)
	}
	if r.Biber || r.Sagetex {
		kinds = append(kinds, StepCompile)
	}
	return append(kinds, StepBackup)
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

// jobName is the source base name without its extension, as biber expects.
func (r *Recipe) jobName() string {
	return filepath.Base(recipe.ReplaceLast(r.File, Extension, ""))
}

// sageScript is the file sagetex writes into the auxiliary directory.
func (r *Recipe) sageScript() string {
	return filepath.Base(recipe.ReplaceLast(r.File, "tex", "sagetex.sage"))
}
