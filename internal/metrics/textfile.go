package metrics

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docwatch/internal/logfields"
)

// TextfileWriter periodically dumps a PrometheusRecorder to a textfile for
// the node exporter textfile collector.
type TextfileWriter struct {
	rec       *PrometheusRecorder
	path      string
	scheduler gocron.Scheduler
}

// NewTextfileWriter schedules a write of rec to path every interval. The
// schedule only runs after Start.
func NewTextfileWriter(rec *PrometheusRecorder, path string, interval time.Duration) (*TextfileWriter, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	w := &TextfileWriter{rec: rec, path: path, scheduler: s}
	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(w.write),
		gocron.WithName("metrics-textfile"),
	); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create metrics textfile job: %w", err)
	}
	return w, nil
}

// Start begins the periodic writes.
func (w *TextfileWriter) Start() {
	w.scheduler.Start()
}

// Stop shuts the scheduler down and writes the textfile once more so the
// final counts are kept.
func (w *TextfileWriter) Stop() error {
	serr := w.scheduler.Shutdown()
	if err := w.rec.WriteTextfile(w.path); err != nil {
		return errors.Join(serr, fmt.Errorf("write metrics textfile: %w", err))
	}
	return serr
}

func (w *TextfileWriter) write() {
	if err := w.rec.WriteTextfile(w.path); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(w.path), logfields.Error(err))
	}
}
