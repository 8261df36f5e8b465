package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docwatch/internal/notify"
)

type fakePipeline struct {
	runs         int
	changed      []bool
	changedCalls int
	err          error
}

func (p *fakePipeline) Run(context.Context) { p.runs++ }

func (p *fakePipeline) HasChanged() (bool, error) {
	p.changedCalls++
	if p.err != nil {
		return false, p.err
	}
	if len(p.changed) == 0 {
		return false, nil
	}
	c := p.changed[0]
	p.changed = p.changed[1:]
	return c, nil
}

type fakeSentinel struct {
	alive []bool
	calls int
}

func (s *fakeSentinel) IsAlive() bool {
	s.calls++
	if len(s.alive) == 0 {
		return false
	}
	a := s.alive[0]
	s.alive = s.alive[1:]
	return a
}

type fakeWaiter struct {
	wakes []Wake
	calls int
}

func (w *fakeWaiter) Wait(context.Context, time.Duration) Wake {
	w.calls++
	if len(w.wakes) == 0 {
		return WakeTimeout
	}
	wake := w.wakes[0]
	w.wakes = w.wakes[1:]
	return wake
}

type fakeViewer struct {
	opened []string
}

func (v *fakeViewer) Open(_ context.Context, path string) { v.opened = append(v.opened, path) }

type recordingNotifier struct {
	mu       sync.Mutex
	triggers []string
}

func (n *recordingNotifier) BuildFinished(_ context.Context, ev notify.BuildEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.triggers = append(n.triggers, ev.Trigger)
}

type harness struct {
	pipeline *fakePipeline
	sentinel *fakeSentinel
	waiter   *fakeWaiter
	viewer   *fakeViewer
	notifier *recordingNotifier
	loop     *Loop
}

func newHarness(t *testing.T, cfg Config, alive, changed []bool, wakes ...Wake) *harness {
	t.Helper()
	if cfg.AuxDir == "" {
		cfg.AuxDir = filepath.Join(t.TempDir(), "aux")
	}
	if cfg.ViewTarget == "" {
		cfg.ViewTarget = filepath.Join(cfg.AuxDir, "thesis.pdf")
	}
	h := &harness{
		pipeline: &fakePipeline{changed: changed},
		sentinel: &fakeSentinel{alive: alive},
		waiter:   &fakeWaiter{wakes: wakes},
		viewer:   &fakeViewer{},
		notifier: &recordingNotifier{},
	}
	h.loop = NewLoop(cfg, h.pipeline, h.sentinel,
		WithWaiter(h.waiter),
		WithViewer(h.viewer),
		WithNotifier(h.notifier),
	)
	return h
}

func TestRun_SentinelGoneAfterFirstBuild(t *testing.T) {
	h := newHarness(t, Config{Toolchain: "latex"}, nil, nil)

	require.NoError(t, h.loop.Run(context.Background()))

	assert.Equal(t, 1, h.pipeline.runs, "no build beyond the initial one")
	assert.Equal(t, 1, h.pipeline.changedCalls, "exactly one draining check")
	assert.Equal(t, 0, h.waiter.calls)
	assert.Len(t, h.viewer.opened, 1)
	assert.Equal(t, StateTerminated, h.loop.State())
	assert.Equal(t, []string{"initial"}, h.notifier.triggers)
	assert.DirExists(t, h.loop.cfg.AuxDir)
}

func TestRun_SingleShotSkipsPolling(t *testing.T) {
	h := newHarness(t, Config{SingleShot: true}, []bool{true}, []bool{true})

	require.NoError(t, h.loop.Run(context.Background()))

	assert.Equal(t, 1, h.pipeline.runs)
	assert.Equal(t, 0, h.pipeline.changedCalls)
	assert.Equal(t, 0, h.sentinel.calls)
	assert.Len(t, h.viewer.opened, 1, "view still happens before exiting")
}

func TestRun_ViewerSuppressed(t *testing.T) {
	h := newHarness(t, Config{DisableViewer: true}, nil, nil)
	require.NoError(t, h.loop.Run(context.Background()))
	assert.Empty(t, h.viewer.opened)
}

func TestRun_RebuildsOnlyOnChange(t *testing.T) {
	h := newHarness(t, Config{},
		[]bool{true, true, true, false},
		[]bool{false, true, false, false},
	)

	require.NoError(t, h.loop.Run(context.Background()))

	assert.Equal(t, 2, h.pipeline.runs)
	assert.Equal(t, 4, h.pipeline.changedCalls, "three polls and one draining check")
	assert.Equal(t, 3, h.waiter.calls)
	assert.Equal(t, []string{"initial", "change"}, h.notifier.triggers)
}

func TestRun_InterruptForcesRebuild(t *testing.T) {
	h := newHarness(t, Config{}, []bool{true, false}, nil, WakeInterrupt)

	require.NoError(t, h.loop.Run(context.Background()))

	assert.Equal(t, 2, h.pipeline.runs)
	assert.Equal(t, []string{"initial", "interrupt"}, h.notifier.triggers)
	assert.Equal(t, StateTerminated, h.loop.State(), "an interrupt never ends the loop")
}

func TestRun_DrainingRebuildsLastEdit(t *testing.T) {
	h := newHarness(t, Config{}, []bool{false, false}, []bool{true})

	require.NoError(t, h.loop.Run(context.Background()))

	assert.Equal(t, 2, h.pipeline.runs)
	assert.Equal(t, []string{"initial", "drain"}, h.notifier.triggers)
}

func TestRun_DrainingReentersPollWhenReopened(t *testing.T) {
	h := newHarness(t, Config{},
		// poll: alive, closed | after drain build: reopened | poll: alive, closed
		[]bool{true, false, true, true, false},
		// poll: no change | drain: change | poll: no change | drain: no change
		[]bool{false, true, false, false},
	)

	require.NoError(t, h.loop.Run(context.Background()))

	assert.Equal(t, 2, h.pipeline.runs)
	assert.Equal(t, 4, h.pipeline.changedCalls)
	assert.Equal(t, 2, h.waiter.calls)
	assert.Len(t, h.viewer.opened, 1, "re-entry does not relaunch the viewer")
	assert.Equal(t, []string{"initial", "drain"}, h.notifier.triggers)
}

func TestRun_ReadFailureAbortsSession(t *testing.T) {
	boom := errors.New("watched file could not be read")
	h := newHarness(t, Config{}, []bool{true}, nil)
	h.pipeline.err = boom

	err := h.loop.Run(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, h.pipeline.runs)
}

func TestRun_CancelledContextStopsWithoutDraining(t *testing.T) {
	h := newHarness(t, Config{}, []bool{true, true}, nil, WakeDone)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.loop.Run(ctx))

	assert.Equal(t, 1, h.pipeline.changedCalls)
	assert.Equal(t, StateTerminated, h.loop.State())
}

func TestRun_AuxDirFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	h := newHarness(t, Config{AuxDir: filepath.Join(file, "aux")}, nil, nil)

	err := h.loop.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, h.pipeline.runs)
}
