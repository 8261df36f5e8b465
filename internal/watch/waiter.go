package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docwatch/internal/logfields"
)

// Wake is the reason a wait ended.
type Wake int

const (
	// WakeTimeout means the poll interval elapsed.
	WakeTimeout Wake = iota
	// WakeInterrupt means the user asked for an immediate rebuild.
	WakeInterrupt
	// WakeEvent means a watched file was touched; the content check still
	// decides whether to rebuild.
	WakeEvent
	// WakeDone means the context was cancelled.
	WakeDone
)

// Waiter sleeps between polls.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) Wake
}

// TimerWaiter sleeps for the interval unless interrupted.
type TimerWaiter struct {
	interrupts <-chan os.Signal
}

// NewTimerWaiter returns a waiter that wakes early on interrupts (nil for none).
func NewTimerWaiter(interrupts <-chan os.Signal) *TimerWaiter {
	return &TimerWaiter{interrupts: interrupts}
}

func (w *TimerWaiter) Wait(ctx context.Context, d time.Duration) Wake {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return WakeDone
	case <-w.interrupts:
		return WakeInterrupt
	case <-timer.C:
		return WakeTimeout
	}
}

// NotifyWaiter is a TimerWaiter that also wakes when a source file is
// written or a sentinel is removed, so saves and editor exits are noticed
// before the interval runs out.
type NotifyWaiter struct {
	interrupts <-chan os.Signal
	watcher    *fsnotify.Watcher
	sources    map[string]struct{}
	sentinels  map[string]struct{}
	logger     *slog.Logger
}

// NewNotifyWaiter watches the directories containing sources and sentinels.
func NewNotifyWaiter(interrupts <-chan os.Signal, sources, sentinels []string, logger *slog.Logger) (*NotifyWaiter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &NotifyWaiter{
		interrupts: interrupts,
		watcher:    watcher,
		sources:    absSet(sources),
		sentinels:  absSet(sentinels),
		logger:     logger,
	}
	dirs := map[string]struct{}{}
	for p := range w.sources {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for p := range w.sentinels {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}
	return w, nil
}

func absSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		set[filepath.Clean(p)] = struct{}{}
	}
	return set
}

// Close releases the underlying watcher.
func (w *NotifyWaiter) Close() error {
	return w.watcher.Close()
}

func (w *NotifyWaiter) Wait(ctx context.Context, d time.Duration) Wake {
	timer := time.NewTimer(d)
	defer timer.Stop()
	events, errs := w.watcher.Events, w.watcher.Errors
	for {
		select {
		case <-ctx.Done():
			return WakeDone
		case <-w.interrupts:
			return WakeInterrupt
		case <-timer.C:
			return WakeTimeout
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if w.relevant(ev) {
				w.logger.Debug("File event", logfields.Path(ev.Name), "op", ev.Op.String())
				return WakeEvent
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Debug("watcher error", logfields.Error(err))
		}
	}
}

// relevant keeps source writes and sentinel removals. Editors rewrite their
// swap files constantly, so other sentinel events are ignored.
func (w *NotifyWaiter) relevant(ev fsnotify.Event) bool {
	name := filepath.Clean(ev.Name)
	if _, ok := w.sources[name]; ok {
		return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
	}
	if _, ok := w.sentinels[name]; ok {
		return ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
	}
	return false
}
