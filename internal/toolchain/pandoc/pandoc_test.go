package pandoc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docwatch/internal/errors"
	"git.home.luguber.info/inful/docwatch/internal/proc"
	"git.home.luguber.info/inful/docwatch/internal/recipe"
	"git.home.luguber.info/inful/docwatch/internal/testutil"
)

func resolve(t *testing.T, args ...string) *Recipe {
	t.Helper()
	plan, err := New(Options{BackupDir: "/backup"}).Resolve(args)
	require.NoError(t, err)
	r, ok := plan.(*Recipe)
	require.True(t, ok)
	return r
}

func TestResolve_OutputNaming(t *testing.T) {
	t.Setenv("USER", "ada")

	r := resolve(t, "notes.md")
	assert.Equal(t, "/tmp/ada-Pandoc/notes.pdf", r.Output)
	assert.Equal(t, r.Output, r.ViewTarget)
	assert.False(t, r.DisableViewer)

	r = resolve(t, "--docx", "notes.md")
	assert.Equal(t, "/tmp/ada-Pandoc/notes.docx", r.Output)
	assert.Empty(t, r.ViewTarget)
	assert.True(t, r.DisableViewer, "--docx suppresses the viewer")

	r = resolve(t, "-t", "html", "notes.md")
	assert.Equal(t, "/tmp/ada-Pandoc/notes.html", r.Output)

	r = resolve(t, "--output-type=epub", "-S", "notes.md")
	assert.Equal(t, "/tmp/ada-Pandoc/notes.epub", r.Output)
	assert.Equal(t, "/backup/notes.epub", r.ViewTarget)
}

func TestResolve_AttachedShortValues(t *testing.T) {
	r := resolve(t, "-t=html", "-a=/tmp/x", "notes.md")
	assert.Equal(t, "/tmp/x", r.AuxDir)
	assert.Equal(t, "/tmp/x/notes.html", r.Output)
}

func TestResolve_RejectsLaTeXOptions(t *testing.T) {
	_, err := New(Options{}).Resolve([]string{"--biber", "notes.md"})
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryValidation))

	_, err = New(Options{}).Resolve(nil)
	require.Error(t, err)

	_, err = New(Options{}).Resolve([]string{"-h"})
	assert.ErrorIs(t, err, recipe.ErrHelp)
}

func TestAssemble_ConvertCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(src, []byte("# Notes\n"), 0o600))

	plan, err := New(Options{PandocArgs: []string{"--toc"}}).Resolve([]string{"-a", "/out", src})
	require.NoError(t, err)
	runner := &testutil.RecordingRunner{}
	p, err := plan.Assemble(recipe.Env{Runner: runner})
	require.NoError(t, err)

	assert.Equal(t, []string{"pandoc"}, p.StepNames())
	p.Run(context.Background())

	require.Len(t, runner.Commands(), 1)
	assert.Equal(t, proc.Command{Name: "pandoc", Args: []string{"--toc", "-o", "/out/notes.pdf", src}}, runner.Commands()[0])
}

func TestAssemble_Make(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))

	plan, err := New(Options{}).Resolve([]string{"--make", src})
	require.NoError(t, err)
	runner := &testutil.RecordingRunner{}
	p, err := plan.Assemble(recipe.Env{Runner: runner})
	require.NoError(t, err)
	p.Run(context.Background())

	require.Len(t, runner.Commands(), 1)
	assert.Equal(t, "make", runner.Commands()[0].Name)
}
