package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/google/uuid"

	derrors "git.home.luguber.info/inful/docwatch/internal/errors"
	"git.home.luguber.info/inful/docwatch/internal/logfields"
	"git.home.luguber.info/inful/docwatch/internal/notify"
	"git.home.luguber.info/inful/docwatch/internal/recipe"
	"git.home.luguber.info/inful/docwatch/internal/sentinel"
	"git.home.luguber.info/inful/docwatch/internal/watch"
)

// Launcher runs resolved plans as independent watch sessions.
type Launcher struct {
	// Env is handed to every plan; its Logger is replaced per session.
	Env recipe.Env
	// Viewer is the program that opens build results.
	Viewer     string
	Interval   time.Duration
	SingleShot bool
	// FSNotify lets file events end the poll sleep early.
	FSNotify bool
	Notifier notify.Notifier
	Logger   *slog.Logger

	// interrupts subscribes c to the rebuild signal and returns the
	// unsubscribe function.
	interrupts func(c chan<- os.Signal) func()
	newID      func() string
}

// Result is the outcome of one session, reported for logging only.
type Result struct {
	ID   string
	File string
	Err  error
}

func (l *Launcher) defaults() {
	l.Env = l.Env.WithDefaults()
	if l.Logger == nil {
		l.Logger = slog.Default()
	}
	if l.Notifier == nil {
		l.Notifier = notify.Noop{}
	}
	if l.interrupts == nil {
		l.interrupts = func(c chan<- os.Signal) func() {
			signal.Notify(c, os.Interrupt)
			return func() { signal.Stop(c) }
		}
	}
	if l.newID == nil {
		l.newID = uuid.NewString
	}
}

// Run starts one goroutine per plan and waits until all of them return.
// A failing or panicking session does not affect the others.
func (l *Launcher) Run(ctx context.Context, plans []recipe.Plan) []Result {
	l.defaults()
	results := make([]Result, len(plans))
	var wg sync.WaitGroup
	for i, plan := range plans {
		wg.Add(1)
		go func(i int, plan recipe.Plan) {
			defer wg.Done()
			id := l.newID()
			err := l.runSession(ctx, id, plan)
			results[i] = Result{ID: id, File: plan.Recipe().File, Err: err}
		}(i, plan)
	}
	wg.Wait()
	return results
}

func (l *Launcher) runSession(ctx context.Context, id string, plan recipe.Plan) (err error) {
	r := plan.Recipe()
	logger := l.Logger.With(logfields.Session(id), logfields.File(r.File), logfields.Toolchain(r.Toolchain))
	recorder := l.Env.Recorder

	defer func() {
		if p := recover(); p != nil {
			err = derrors.InternalError(fmt.Sprintf("session panicked: %v", p), nil)
		}
		if err != nil {
			logger.Error("Watch session failed", logfields.Error(err))
		} else {
			logger.Info("Watch session ended")
		}
	}()

	recorder.AddActiveSessions(1)
	defer recorder.AddActiveSessions(-1)

	env := l.Env
	env.Logger = logger
	p, err := plan.Assemble(env)
	if err != nil {
		return err
	}
	s := sentinel.New(r.File, r.ExtraFiles)

	interrupts := make(chan os.Signal, 1)
	stop := l.interrupts(interrupts)
	defer stop()

	waiter := l.waiter(interrupts, r, s, logger)
	if c, ok := waiter.(interface{ Close() error }); ok {
		defer func() { _ = c.Close() }()
	}

	logger.Info("Watching", "files", p.WatchedPaths(), "steps", p.StepNames(), "sentinels", s.Paths())
	loop := watch.NewLoop(watch.Config{
		SessionID:     id,
		Toolchain:     r.Toolchain,
		File:          r.File,
		AuxDir:        r.AuxDir,
		Output:        r.Output,
		ViewTarget:    r.ViewTarget,
		DisableViewer: r.DisableViewer,
		SingleShot:    l.SingleShot,
		Interval:      l.Interval,
	}, p, s,
		watch.WithViewer(watch.CommandViewer{Program: l.Viewer, Runner: l.Env.Runner, Logger: logger}),
		watch.WithWaiter(waiter),
		watch.WithRecorder(recorder),
		watch.WithNotifier(l.Notifier),
		watch.WithLogger(logger),
	)
	return loop.Run(ctx)
}

func (l *Launcher) waiter(interrupts <-chan os.Signal, r recipe.Common, s *sentinel.Sentinel, logger *slog.Logger) watch.Waiter {
	if !l.FSNotify {
		return watch.NewTimerWaiter(interrupts)
	}
	sources := append([]string{r.File}, r.ExtraFiles...)
	w, err := watch.NewNotifyWaiter(interrupts, sources, s.Paths(), logger)
	if err != nil {
		logger.Warn("File notifications unavailable; polling only", logfields.Error(err))
		return watch.NewTimerWaiter(interrupts)
	}
	return w
}
