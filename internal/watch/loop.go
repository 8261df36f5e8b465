// Package watch runs the build-on-change loop of a single watch session.
package watch

import (
	"context"
	"log/slog"
	"os"
	"time"

	derrors "git.home.luguber.info/inful/docwatch/internal/errors"
	"git.home.luguber.info/inful/docwatch/internal/logfields"
	"git.home.luguber.info/inful/docwatch/internal/metrics"
	"git.home.luguber.info/inful/docwatch/internal/notify"
)

// DefaultInterval is the pause between two polls.
const DefaultInterval = 5 * time.Second

// Pipeline is the build unit driven by the loop.
type Pipeline interface {
	Run(ctx context.Context)
	HasChanged() (bool, error)
}

// Liveness reports whether the editor still holds the source open.
type Liveness interface {
	IsAlive() bool
}

// Config holds the per-session polling parameters.
type Config struct {
	SessionID string
	Toolchain string
	File      string
	AuxDir    string
	Output    string
	// ViewTarget is opened once after the first build unless DisableViewer
	// is set or it is empty.
	ViewTarget    string
	DisableViewer bool
	// SingleShot stops after the first build and view; the host editor
	// drives rebuilds itself.
	SingleShot bool
	Interval   time.Duration
}

// Loop is the state machine INIT -> BUILD -> VIEW -> POLL -> DRAINING ->
// TERMINATED for one session.
type Loop struct {
	cfg      Config
	pipeline Pipeline
	sentinel Liveness
	viewer   Viewer
	waiter   Waiter
	recorder metrics.Recorder
	notifier notify.Notifier
	logger   *slog.Logger
	mkdirAll func(string, os.FileMode) error

	state State
}

// Option configures a Loop.
type Option func(*Loop)

// WithViewer sets the viewer opened after the initial build.
func WithViewer(v Viewer) Option { return func(l *Loop) { l.viewer = v } }

// WithWaiter replaces the sleep between polls.
func WithWaiter(w Waiter) Option { return func(l *Loop) { l.waiter = w } }

// WithRecorder sets the metrics sink.
func WithRecorder(r metrics.Recorder) Option { return func(l *Loop) { l.recorder = r } }

// WithNotifier sets where build results are announced.
func WithNotifier(n notify.Notifier) Option { return func(l *Loop) { l.notifier = n } }

// WithLogger sets the session logger.
func WithLogger(lg *slog.Logger) Option { return func(l *Loop) { l.logger = lg } }

// NewLoop creates a loop for p guarded by s.
func NewLoop(cfg Config, p Pipeline, s Liveness, opts ...Option) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	l := &Loop{
		cfg:      cfg,
		pipeline: p,
		sentinel: s,
		recorder: metrics.NoopRecorder{},
		notifier: notify.Noop{},
		logger:   slog.Default(),
		mkdirAll: os.MkdirAll,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.waiter == nil {
		l.waiter = NewTimerWaiter(nil)
	}
	return l
}

// State returns the current phase.
func (l *Loop) State() State { return l.state }

// Run drives the session until the editor closes the file, the context is
// cancelled, or a watched file becomes unreadable.
func (l *Loop) Run(ctx context.Context) error {
	l.enter(StateInit)
	if err := l.mkdirAll(l.cfg.AuxDir, 0o755); err != nil {
		return derrors.AuxDirFailed(l.cfg.AuxDir, err)
	}

	l.build(ctx, metrics.TriggerInitial)

	if !l.cfg.DisableViewer && l.cfg.ViewTarget != "" && l.viewer != nil {
		l.enter(StateView)
		l.viewer.Open(ctx, l.cfg.ViewTarget)
	}

	if l.cfg.SingleShot {
		l.logger.Debug("Host editor drives rebuilds; not polling")
		l.enter(StateTerminated)
		return nil
	}

	for {
		l.enter(StatePoll)
		if err := l.poll(ctx); err != nil {
			return err
		}
		if ctx.Err() != nil {
			break
		}

		// The editor may have saved between the last poll and closing.
		l.enter(StateDraining)
		changed, err := l.pipeline.HasChanged()
		if err != nil {
			return err
		}
		if !changed {
			break
		}
		l.build(ctx, metrics.TriggerDrain)
		if !l.sentinel.IsAlive() {
			break
		}
		l.logger.Info("Source reopened while draining; resuming watch")
	}

	l.enter(StateTerminated)
	return nil
}

func (l *Loop) poll(ctx context.Context) error {
	for l.sentinel.IsAlive() {
		changed, err := l.pipeline.HasChanged()
		if err != nil {
			return err
		}
		if changed {
			l.build(ctx, metrics.TriggerChange)
		}

		switch l.waiter.Wait(ctx, l.cfg.Interval) {
		case WakeInterrupt:
			l.logger.Info("Interrupt received; rebuilding")
			l.build(ctx, metrics.TriggerInterrupt)
		case WakeDone:
			return nil
		case WakeTimeout, WakeEvent:
		}
	}
	return nil
}

func (l *Loop) build(ctx context.Context, trigger metrics.Trigger) {
	l.enter(StateBuild)
	start := time.Now()
	l.pipeline.Run(ctx)
	elapsed := time.Since(start)

	l.recorder.IncBuild(l.cfg.Toolchain, trigger)
	l.logger.Info("Build finished",
		logfields.Trigger(string(trigger)),
		logfields.DurationMS(float64(elapsed.Milliseconds())))
	l.notifier.BuildFinished(ctx, notify.BuildEvent{
		Session:    l.cfg.SessionID,
		Toolchain:  l.cfg.Toolchain,
		File:       l.cfg.File,
		Output:     l.cfg.Output,
		Trigger:    string(trigger),
		DurationMS: elapsed.Milliseconds(),
		FinishedAt: time.Now(),
	})
}

func (l *Loop) enter(s State) {
	l.state = s
	l.logger.Debug("Watch state", logfields.State(s.String()))
}
