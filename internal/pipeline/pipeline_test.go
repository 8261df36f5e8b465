package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStep struct {
	name string
	log  *[]string
}

func (s recordingStep) Name() string { return s.name }
func (s recordingStep) Run(context.Context) {
	*s.log = append(*s.log, s.name)
}

type fakeWatched struct {
	path    string
	results []bool
	err     error
	calls   int
}

func (f *fakeWatched) Path() string { return f.path }
func (f *fakeWatched) Changed() (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	if len(f.results) == 0 {
		return false, nil
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r, nil
}

func TestRun_ExecutesStepsInOrder(t *testing.T) {
	var log []string
	steps := []Step{
		recordingStep{"compile", &log},
		recordingStep{"biber", &log},
		recordingStep{"compile", &log},
		recordingStep{"backup", &log},
	}
	p := New("latex", steps, nil)

	p.Run(context.Background())
	p.Run(context.Background())

	assert.Equal(t, []string{
		"compile", "biber", "compile", "backup",
		"compile", "biber", "compile", "backup",
	}, log)
	assert.Equal(t, []string{"compile", "biber", "compile", "backup"}, p.StepNames())
}

func TestRun_StopsOnCancelledContext(t *testing.T) {
	var log []string
	p := New("latex", []Step{recordingStep{"compile", &log}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p.Run(ctx)
	assert.Empty(t, log)
}

func TestNew_CopiesInputs(t *testing.T) {
	var log []string
	steps := []Step{recordingStep{"a", &log}}
	p := New("pandoc", steps, nil)
	steps[0] = recordingStep{"mutated", &log}

	assert.Equal(t, []string{"a"}, p.StepNames())
}

func TestHasChanged_ChecksEveryFile(t *testing.T) {
	first := &fakeWatched{path: "/a.tex", results: []bool{true}}
	second := &fakeWatched{path: "/b.tex", results: []bool{false}}
	third := &fakeWatched{path: "/c.bib", results: []bool{true}}
	p := New("latex", nil, []Watched{first, second, third})

	changed, err := p.HasChanged()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 1, third.calls, "no short-circuit after the first change")

	changed, err = p.HasChanged()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []string{"/a.tex", "/b.tex", "/c.bib"}, p.WatchedPaths())
}

func TestHasChanged_PropagatesReadFailure(t *testing.T) {
	boom := errors.New("unreadable")
	p := New("latex", nil, []Watched{&fakeWatched{path: "/a.tex", err: boom}})

	_, err := p.HasChanged()
	assert.ErrorIs(t, err, boom)
}
