package recipe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
)

// ErrHelp is returned by option parsing when usage was requested.
var ErrHelp = errors.New("help requested")

// CommonFlags are the options every toolchain accepts.
type CommonFlags struct {
	Help   bool     `short:"h" help:"Show usage and exit."`
	AuxDir string   `short:"a" name:"auxdir" default:"${auxdir}" placeholder:"DIR" help:"Auxiliary/output directory."`
	Slow   bool     `short:"S" help:"Open the backup copy instead of the auxiliary output."`
	NoPDF  bool     `short:"D" name:"no-pdf" help:"Do not launch the viewer."`
	Files  []string `short:"f" sep:"none" placeholder:"PATH" help:"Extra file to watch (repeatable)."`
	Make   bool     `short:"m" help:"Run make instead of the toolchain steps."`
}

// Common converts parsed flags into the shared recipe fields.
func (f CommonFlags) Common(toolchain, file, backupDir string) Common {
	extras := make([]string, 0, len(f.Files))
	for _, e := range f.Files {
		extras = append(extras, ExpandPath(e))
	}
	return Common{
		Toolchain:     toolchain,
		File:          file,
		ExtraFiles:    extras,
		AuxDir:        ExpandPath(f.AuxDir),
		BackupDir:     ExpandPath(backupDir),
		Slow:          f.Slow,
		DisableViewer: f.NoPDF,
		Make:          f.Make,
	}
}

// FlagSet lists the options that consume the following argument as value.
type FlagSet struct {
	Long  []string
	Short string
}

// CommonValueFlags are the value-taking options of CommonFlags.
var CommonValueFlags = FlagSet{Long: []string{"--auxdir", "--files"}, Short: "af"}

// Merge combines two flag sets.
func (s FlagSet) Merge(o FlagSet) FlagSet {
	return FlagSet{
		Long:  append(append([]string(nil), s.Long...), o.Long...),
		Short: s.Short + o.Short,
	}
}

// ConsumesNext reports whether arg is an option whose value is the next
// argument (as opposed to --opt=value or a flag).
func (s FlagSet) ConsumesNext(arg string) bool {
	switch {
	case strings.HasPrefix(arg, "--"):
		if strings.Contains(arg, "=") {
			return false
		}
		for _, l := range s.Long {
			if arg == l {
				return true
			}
		}
		return false
	case strings.HasPrefix(arg, "-") && len(arg) >= 2:
		// In a cluster the first value-taking letter swallows the rest.
		for i, c := range arg[1:] {
			if strings.ContainsRune(s.Short, c) {
				return i == len(arg)-2
			}
		}
		return false
	default:
		return false
	}
}

// SplitAttached rewrites short value options written as -X=value into
// -X value, so the value does not keep the "=". Arguments after "--" and
// values consumed by a preceding option are left alone.
func (s FlagSet) SplitAttached(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if s.ConsumesNext(arg) {
			out = append(out, arg)
			if i+1 < len(args) {
				i++
				out = append(out, args[i])
			}
			continue
		}
		out = append(out, s.splitShort(arg)...)
	}
	return out
}

func (s FlagSet) splitShort(arg string) []string {
	if strings.HasPrefix(arg, "--") || !strings.HasPrefix(arg, "-") {
		return []string{arg}
	}
	for i := 1; i < len(arg); i++ {
		if !strings.ContainsRune(s.Short, rune(arg[i])) {
			continue
		}
		if i+1 < len(arg) && arg[i+1] == '=' {
			return []string{arg[:i+1], arg[i+2:]}
		}
		break
	}
	return []string{arg}
}

// Parse resolves args into flags with kong. Short value options listed in
// values also accept the -X=value form. Unknown options and surplus
// positional arguments are errors; -h/--help yields ErrHelp.
func Parse(program string, flags any, help func() bool, vars kong.Vars, values FlagSet, args []string) error {
	parser, err := kong.New(flags,
		kong.Name(program),
		kong.NoDefaultHelp(),
		vars,
	)
	if err != nil {
		return fmt.Errorf("build option parser: %w", err)
	}
	if _, err := parser.Parse(values.SplitAttached(args)); err != nil {
		if help() {
			return ErrHelp
		}
		return err
	}
	if help() {
		return ErrHelp
	}
	return nil
}
