package sentinel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathFor(t *testing.T) {
	cases := map[string]string{
		"a/b/name.tex":       "a/b/.name.tex.swp",
		"report.md":          ".report.md.swp",
		"/home/u/thesis.tex": "/home/u/.thesis.tex.swp",
	}
	for in, want := range cases {
		assert.Equal(t, want, PathFor(in), in)
		assert.Equal(t, want, PathFor(in), "derivation is deterministic")
	}
}

func TestSourceFor(t *testing.T) {
	src, ok := SourceFor(".draft.tex.swp", ".tex")
	require.True(t, ok)
	assert.Equal(t, "draft.tex", src)

	src, ok = SourceFor("notes/.todo.md.swp", ".md")
	require.True(t, ok)
	assert.Equal(t, "notes/todo.md", src)

	for _, name := range []string{".draft.tex.swp.bak", "draft.tex.swp", "..tex.swp", ".draft.md.swp", ".tex.swp"} {
		_, ok := SourceFor(name, ".tex")
		assert.False(t, ok, name)
	}
}

func TestIsAlive_AnyOfMany(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "main.tex")
	extras := []string{filepath.Join(dir, "ch1.tex"), filepath.Join(dir, "refs.bib")}
	s := New(primary, extras)

	require.Len(t, s.Paths(), 3)
	assert.False(t, s.IsAlive())

	swp := PathFor(extras[1])
	require.NoError(t, os.WriteFile(swp, nil, 0o600))
	assert.True(t, s.IsAlive())

	require.NoError(t, os.WriteFile(PathFor(primary), nil, 0o600))
	require.NoError(t, os.Remove(swp))
	assert.True(t, s.IsAlive())

	require.NoError(t, os.Remove(PathFor(primary)))
	assert.False(t, s.IsAlive(), "liveness is re-evaluated on each call")
}

func TestNew_InstancesDoNotShareState(t *testing.T) {
	a := New("a.tex", nil)
	b := New("b.md", []string{"c.md"})

	assert.Equal(t, []string{".a.tex.swp"}, a.Paths())
	assert.Equal(t, []string{".b.md.swp", ".c.md.swp"}, b.Paths())

	paths := a.Paths()
	paths[0] = "mutated"
	assert.Equal(t, []string{".a.tex.swp"}, a.Paths())
}
