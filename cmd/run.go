package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/tanq16/dw/internal/config"
	"github.com/tanq16/dw/internal/metrics"
	"github.com/tanq16/dw/internal/output"
	"github.com/tanq16/dw/internal/reporter"
	"github.com/tanq16/dw/internal/scheduler"
	"github.com/tanq16/dw/internal/utils"
)

type entry struct {
	URL    string
	Output string
	Force  bool
}

func setupLogging(level config.LogLevel) (func(), error) {
	utils.InitLogger(debug)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return func() {}, err
		}
		utils.SetLogOutput(f)
		return func() { f.Close() }, nil
	}
	// stderr logs would tear the live display, keep them to errors
	if !debug {
		if level == config.LogSilent {
			utils.SetLogLevel(zerolog.Disabled)
		} else {
			utils.SetLogLevel(zerolog.ErrorLevel)
		}
	}
	return func() {}, nil
}

// resolveTarget picks the destination for entries without their own output.
// Several URLs always go into a directory.
func resolveTarget(cfg *config.AppConfig, count int) (string, error) {
	target := outputPath
	if target == "" {
		target = cfg.Download.DownloadDir
	}
	if target == "" {
		return "", nil
	}
	info, err := os.Stat(target)
	isDir := err == nil && info.IsDir()
	if isDir || count > 1 || target == cfg.Download.DownloadDir {
		if err := os.MkdirAll(target, 0755); err != nil {
			return "", err
		}
		return target + string(filepath.Separator), nil
	}
	return target, nil
}

func runEntries(entries []entry) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		output.PrintError(os.Stderr, err.Error())
		return 1
	}
	cfg.Apply(config.Overrides{
		Silent:         silent,
		Workers:        workers,
		Timeout:        timeout,
		ConnectTimeout: connectTimeout,
	})
	closeLog, err := setupLogging(cfg.General.LogLevel)
	if err != nil {
		output.PrintError(os.Stderr, err.Error())
		return 1
	}
	defer closeLog()
	log := utils.GetLogger("cmd")
	log.Debug().Str("config", cfg.Source).Int("workers", cfg.Download.ParallelRequests).Int("retries", cfg.Download.Retries).Msg("Configuration resolved")

	target, err := resolveTarget(cfg, len(entries))
	if err != nil {
		output.PrintError(os.Stderr, err.Error())
		return 1
	}

	level := cfg.General.LogLevel
	manager := output.NewManager(os.Stdout)
	manager.SetMaxLabel(cfg.Progress.MaxDisplayedFilename)
	showProgress := level.ShowProgress() && cfg.Progress.Enable
	var factory reporter.Factory = reporter.SilentFactory
	if showProgress {
		factory = reporter.NewConsoleFactory(manager, cfg.ConsoleOptions())
	}

	tracker := newPartialTracker()
	factory = tracker.wrapFactory(factory)

	var opts []scheduler.Option
	if metricsAddr != "" {
		collector := metrics.NewCollector()
		factory = collector.WrapFactory(factory)
		limiter := collector.InstrumentLimiter(scheduler.NewLimiter(cfg.Download.ParallelRequests))
		opts = append(opts, scheduler.WithLimiter(limiter))
		srv := &http.Server{Addr: metricsAddr, Handler: collector.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Str("addr", metricsAddr).Msg("Metrics server stopped")
			}
		}()
		defer srv.Close()
	}

	builder := scheduler.NewBuilder(cfg.SchedulerConfig()).
		WithClient(utils.NewHTTPClient(cfg.HTTPClientConfig())).
		WithReporterFactory(factory).
		WithOptions(opts...)
	for _, e := range entries {
		dest := e.Output
		if dest == "" {
			dest = target
		}
		builder.AddURL(e.URL, dest, e.Force)
	}
	sched, err := builder.Build()
	if err != nil {
		output.PrintError(os.Stderr, err.Error())
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var flowOut io.Writer = os.Stdout
	if level == config.LogSilent {
		flowOut = io.Discard
	}
	flow := reporter.NewFlowReporter(flowOut, cfg.FlowOptions())
	flow.OnStart()
	if showProgress {
		manager.StartDisplay()
	}
	result, err := sched.RunOnce(ctx)
	if showProgress {
		manager.StopDisplay()
		if level.ShowSummary() {
			manager.ShowSummary()
		}
	}
	if ctx.Err() != nil {
		output.PrintWarning(os.Stderr, "Interrupted, removing partial files")
		tracker.removeAll()
	}
	if err != nil {
		output.PrintError(os.Stderr, err.Error())
		return 1
	}
	if result.Failed() {
		flow.OnErrors(result.Errors())
	} else {
		flow.OnSuccess()
	}
	flow.OnFinish()
	if result.Failed() {
		return 1
	}
	return 0
}

// partialTracker remembers files that were created but never completed, so
// an interrupted run can clean them up.
type partialTracker struct {
	mu    sync.Mutex
	paths map[string]bool
}

func newPartialTracker() *partialTracker {
	return &partialTracker{paths: make(map[string]bool)}
}

func (p *partialTracker) wrapFactory(f reporter.Factory) reporter.Factory {
	return reporter.FactoryFunc(func() reporter.Reporter {
		return &trackingReporter{Reporter: f.Create(), tracker: p}
	})
}

func (p *partialTracker) set(path string, partial bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if partial {
		p.paths[path] = true
	} else {
		delete(p.paths, path)
	}
}

func (p *partialTracker) removeAll() {
	log := utils.GetLogger("cmd")
	p.mu.Lock()
	defer p.mu.Unlock()
	for path := range p.paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Error().Err(err).Str("path", path).Msg("Could not remove partial file")
			continue
		}
		log.Debug().Str("path", path).Msg("Removed partial file")
	}
	p.paths = make(map[string]bool)
}

type trackingReporter struct {
	reporter.Reporter
	tracker *partialTracker
}

func (r *trackingReporter) OnFileCreate(path string) {
	r.tracker.set(path, true)
	r.Reporter.OnFileCreate(path)
}

func (r *trackingReporter) OnComplete(url, path string) {
	r.tracker.set(path, false)
	r.Reporter.OnComplete(url, path)
}
