// Package dispatch turns the command line into watch sessions: it sorts
// source files by toolchain, falls back to the editor swap files in the
// working directory, and resolves every session's options.
package dispatch

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	derrors "git.home.luguber.info/inful/docwatch/internal/errors"
	"git.home.luguber.info/inful/docwatch/internal/recipe"
	"git.home.luguber.info/inful/docwatch/internal/sentinel"
)

// ErrHelp is returned when usage was requested.
var ErrHelp = recipe.ErrHelp

// Toolchain resolves the options of sessions for one source suffix.
type Toolchain interface {
	Name() string
	Extension() string
	ValueFlags() recipe.FlagSet
	Usage() string
	Resolve(args []string) (recipe.Plan, error)
}

// Invocation is a toolchain with the arguments of one session.
type Invocation struct {
	Toolchain Toolchain
	Args      []string
}

// Dispatcher classifies arguments. The zero value is not usable; use New.
type Dispatcher struct {
	toolchains []Toolchain
	dir        string
	readDir    func(string) ([]os.DirEntry, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDir sets the directory scanned for swap files (default ".").
func WithDir(dir string) Option {
	return func(d *Dispatcher) { d.dir = dir }
}

// New creates a dispatcher over the given toolchains.
func New(toolchains []Toolchain, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		toolchains: append([]Toolchain(nil), toolchains...),
		dir:        ".",
		readDir:    os.ReadDir,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Usage returns the usage lines of every toolchain.
func (d *Dispatcher) Usage() string {
	lines := make([]string, 0, len(d.toolchains))
	for _, tc := range d.toolchains {
		lines = append(lines, tc.Usage())
	}
	return strings.Join(lines, "\n") + "\n"
}

// Plans classifies args and resolves one plan per session.
func (d *Dispatcher) Plans(args []string) ([]recipe.Plan, error) {
	if d.helpRequested(args) {
		return nil, ErrHelp
	}
	invocations, err := d.Classify(args)
	if err != nil {
		return nil, err
	}
	plans := make([]recipe.Plan, 0, len(invocations))
	for _, inv := range invocations {
		plan, err := inv.Toolchain.Resolve(inv.Args)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// Classify groups args into sessions. Every named source file gets its own
// session, parsed with all remaining arguments. Without source files the
// swap files in the scan directory name the sources; finding swap files of
// more than one toolchain there is an error.
func (d *Dispatcher) Classify(args []string) ([]Invocation, error) {
	options, files := d.split(args)

	if len(files) > 0 {
		invocations := make([]Invocation, 0, len(files))
		for _, f := range files {
			tc := d.toolchainFor(f)
			invocations = append(invocations, Invocation{Toolchain: tc, Args: withFile(options, f)})
		}
		return invocations, nil
	}

	found, err := d.scan()
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, derrors.NoInputs()
	}
	if len(found) > 1 {
		var swaps []string
		for _, sources := range found {
			for _, s := range sources {
				swaps = append(swaps, sentinel.PathFor(s))
			}
		}
		sort.Strings(swaps)
		return nil, derrors.MixedToolchains(swaps)
	}

	var invocations []Invocation
	for _, tc := range d.toolchains {
		for _, source := range found[tc.Name()] {
			invocations = append(invocations, Invocation{Toolchain: tc, Args: withFile(options, source)})
		}
	}
	return invocations, nil
}

// split separates source file arguments from options and option values.
func (d *Dispatcher) split(args []string) (options, files []string) {
	values := d.valueFlags()
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			options = append(options, args[i:]...)
			return options, files
		case strings.HasPrefix(arg, "-") && arg != "-":
			options = append(options, arg)
			if values.ConsumesNext(arg) && i+1 < len(args) {
				i++
				options = append(options, args[i])
			}
		case d.toolchainFor(arg) != nil:
			files = append(files, arg)
		default:
			options = append(options, arg)
		}
	}
	return options, files
}

// scan maps toolchain names to the sources of swap files in the directory.
func (d *Dispatcher) scan() (map[string][]string, error) {
	entries, err := d.readDir(d.dir)
	if err != nil {
		return nil, derrors.InternalError("scan for swap files failed", err).WithContext("dir", d.dir)
	}
	found := map[string][]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, tc := range d.toolchains {
			if source, ok := sentinel.SourceFor(e.Name(), tc.Extension()); ok {
				found[tc.Name()] = append(found[tc.Name()], filepath.Join(d.dir, source))
			}
		}
	}
	return found, nil
}

func (d *Dispatcher) toolchainFor(arg string) Toolchain {
	for _, tc := range d.toolchains {
		if strings.HasSuffix(arg, tc.Extension()) && len(arg) > len(tc.Extension()) {
			return tc
		}
	}
	return nil
}

func (d *Dispatcher) valueFlags() recipe.FlagSet {
	var set recipe.FlagSet
	for _, tc := range d.toolchains {
		set = set.Merge(tc.ValueFlags())
	}
	return set
}

// helpRequested finds -h or --help outside option values.
func (d *Dispatcher) helpRequested(args []string) bool {
	values := d.valueFlags()
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return false
		}
		if arg == "--help" {
			return true
		}
		if strings.HasPrefix(arg, "-") && !strings.HasPrefix(arg, "--") {
			for _, c := range arg[1:] {
				if c == 'h' {
					return true
				}
				if strings.ContainsRune(values.Short, c) {
					break
				}
			}
		}
		if values.ConsumesNext(arg) {
			i++
		}
	}
	return false
}

func withFile(options []string, file string) []string {
	args := make([]string, 0, len(options)+1)
	args = append(args, options...)
	return append(args, file)
}

// IsHelp reports whether err asks for usage instead of a failure.
func IsHelp(err error) bool {
	return errors.Is(err, ErrHelp)
}
