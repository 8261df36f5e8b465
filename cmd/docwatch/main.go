// Command docwatch rebuilds LaTeX and Markdown documents while they are open
// in an editor.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"git.home.luguber.info/inful/docwatch/internal/config"
	"git.home.luguber.info/inful/docwatch/internal/dispatch"
	derrors "git.home.luguber.info/inful/docwatch/internal/errors"
	"git.home.luguber.info/inful/docwatch/internal/logfields"
	"git.home.luguber.info/inful/docwatch/internal/metrics"
	"git.home.luguber.info/inful/docwatch/internal/notify"
	"git.home.luguber.info/inful/docwatch/internal/recipe"
	"git.home.luguber.info/inful/docwatch/internal/snapshot"
	"git.home.luguber.info/inful/docwatch/internal/toolchain/latex"
	"git.home.luguber.info/inful/docwatch/internal/toolchain/pandoc"
	"git.home.luguber.info/inful/docwatch/internal/version"
)

func main() {
	os.Exit(run(context.Background(), filepath.Base(os.Args[0]), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, program string, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		return derrors.NewCLIErrorAdapter(false, nil).WithOutput(stderr).Report(err)
	}

	logger := newLogger(cfg.Log.Level, stderr)
	slog.SetDefault(logger)
	adapter := derrors.NewCLIErrorAdapter(cfg.Log.Level == config.LogLevelDebug, logger).WithOutput(stderr)

	d := dispatch.New(toolchains(program, cfg))
	plans, err := d.Plans(args)
	if dispatch.IsHelp(err) {
		_, _ = fmt.Fprint(stdout, d.Usage())
		return 0
	}
	if err != nil {
		code := adapter.Report(err)
		if derrors.IsCategory(err, derrors.CategoryValidation) {
			_, _ = fmt.Fprint(stderr, d.Usage())
		}
		return code
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	recorder, flush := setupMetrics(cfg, logger)
	defer flush()
	notifier, closeNotifier := setupNotifier(cfg, logger)
	defer closeNotifier()

	launcher := &dispatch.Launcher{
		Env: recipe.Env{
			Recorder:        recorder,
			Logger:          logger,
			SnapshotOptions: []snapshot.Option{snapshot.WithPolicy(cfg.ReadRetry.Policy())},
		},
		Viewer:     cfg.Viewer,
		Interval:   cfg.PollInterval,
		SingleShot: cfg.HostEditorActive(),
		FSNotify:   cfg.FSNotify,
		Notifier:   notifier,
		Logger:     logger,
	}
	logger.Debug("Starting docwatch", "version", version.String(), "sessions", len(plans))
	launcher.Run(ctx, plans)
	return 0
}

func newLogger(level config.LogLevel, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.Slog()}))
}

func toolchains(program string, cfg *config.Config) []dispatch.Toolchain {
	return []dispatch.Toolchain{
		latex.New(latex.Options{
			Program:   program,
			Engine:    cfg.LaTeX.Engine,
			BackupDir: cfg.LaTeX.BackupDir,
		}),
		pandoc.New(pandoc.Options{
			Program:    program,
			BackupDir:  cfg.LaTeX.BackupDir,
			PandocArgs: cfg.Pandoc.Options,
		}),
	}
}

// setupMetrics returns a Prometheus recorder that is periodically written to
// the configured textfile, or a no-op recorder. flush stops the writer after
// a final write.
func setupMetrics(cfg *config.Config, logger *slog.Logger) (metrics.Recorder, func()) {
	path := cfg.Metrics.Textfile
	if path == "" {
		return metrics.NoopRecorder{}, func() {}
	}
	rec := metrics.NewPrometheusRecorder(nil)
	w, err := metrics.NewTextfileWriter(rec, path, cfg.Metrics.Interval)
	if err != nil {
		logger.Warn("Metrics textfile disabled", logfields.Error(err))
		return metrics.NoopRecorder{}, func() {}
	}
	w.Start()
	logger.Debug("Writing metrics textfile", logfields.Path(path))
	return rec, func() {
		if err := w.Stop(); err != nil {
			logger.Warn("Failed to flush metrics textfile", logfields.Error(err))
		}
	}
}

func setupNotifier(cfg *config.Config, logger *slog.Logger) (notify.Notifier, func()) {
	if cfg.Notify.NATSURL == "" {
		return notify.Noop{}, func() {}
	}
	n, err := notify.NewNATSNotifier(cfg.Notify.NATSURL, cfg.Notify.Subject)
	if err != nil {
		logger.Warn("Build notifications disabled", logfields.Error(err))
		return notify.Noop{}, func() {}
	}
	return n, n.Close
}
