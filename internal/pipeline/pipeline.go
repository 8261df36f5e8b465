// Package pipeline composes an ordered list of build steps and a set of
// watched files into a single rebuild unit.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/docwatch/internal/logfields"
	"git.home.luguber.info/inful/docwatch/internal/metrics"
)

// Step is one build action. It only has side effects: whether the external
// tool behind it succeeded is not reported back to the pipeline.
type Step interface {
	Name() string
	Run(ctx context.Context)
}

// Watched is a file whose content is compared between checks.
type Watched interface {
	Path() string
	Changed() (bool, error)
}

// Pipeline runs its steps strictly in order and tracks its watched files.
// The step list is fixed at construction.
type Pipeline struct {
	toolchain string
	steps     []Step
	watched   []Watched
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithLogger sets the logger used for step tracing.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a pipeline. The slices are copied, so the caller keeps no
// handle on the pipeline's state.
func New(toolchain string, steps []Step, watched []Watched, opts ...Option) *Pipeline {
	p := &Pipeline{
		toolchain: toolchain,
		steps:     append([]Step(nil), steps...),
		watched:   append([]Watched(nil), watched...),
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes every step in order. A failing external tool does not stop
// the sequence; only a cancelled context does.
func (p *Pipeline) Run(ctx context.Context) {
	start := time.Now()
	for _, step := range p.steps {
		if ctx.Err() != nil {
			p.logger.Debug("Build interrupted", logfields.Step(step.Name()))
			return
		}
		stepStart := time.Now()
		step.Run(ctx)
		elapsed := time.Since(stepStart)
		p.recorder.ObserveStepDuration(p.toolchain, step.Name(), elapsed)
		p.logger.Debug("Step finished", logfields.Step(step.Name()), logfields.DurationMS(float64(elapsed.Milliseconds())))
	}
	p.recorder.ObserveBuildDuration(p.toolchain, time.Since(start))
}

// HasChanged checks every watched file and reports whether any changed.
// All files are checked even after a hit, since each check refreshes that
// file's snapshot. A read error aborts the check.
func (p *Pipeline) HasChanged() (bool, error) {
	changed := false
	for _, w := range p.watched {
		c, err := w.Changed()
		if err != nil {
			return false, err
		}
		if c {
			p.logger.Debug("Change detected", logfields.File(w.Path()))
			p.recorder.IncChangeDetected(p.toolchain)
			changed = true
		}
	}
	return changed, nil
}

// StepNames lists the steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// WatchedPaths lists the watched files in the order they were added.
func (p *Pipeline) WatchedPaths() []string {
	paths := make([]string, len(p.watched))
	for i, w := range p.watched {
		paths[i] = w.Path()
	}
	return paths
}
