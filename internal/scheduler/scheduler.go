// Package scheduler runs batches of download tasks with a bounded number of
// concurrent transfers and folds their outcomes into a DownloadResult.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	dwhttp "github.com/tanq16/dw/internal/downloaders/http"
	"github.com/tanq16/dw/internal/utils"
)

// ErrSchedulerFatal marks failures of the scheduler itself, as opposed to
// failures of individual tasks.
var ErrSchedulerFatal = errors.New("scheduler failure")

type SchedulerError struct {
	Dispatched int
	Err        error
}

func (e *SchedulerError) Error() string {
	return fmt.Sprintf("%v after %d dispatched task(s): %v", ErrSchedulerFatal, e.Dispatched, e.Err)
}

func (e *SchedulerError) Unwrap() []error {
	return []error{ErrSchedulerFatal, e.Err}
}

type Config struct {
	// Workers is the number of permits, i.e. transfers allowed at once.
	Workers int
	// RequestsPerSecond paces request starts across the batch. Zero disables.
	RequestsPerSecond float64
	// Retries is carried for callers; every attempt made here is final.
	Retries int
}

// TransferFunc executes one task. It returns nil or a *utils.TaskError.
type TransferFunc func(ctx context.Context, client utils.HTTPDoer, task utils.DownloadTask) error

type Option func(*Scheduler)

func WithLimiter(l Limiter) Option {
	return func(s *Scheduler) { s.limiter = l }
}

func WithTransfer(fn TransferFunc) Option {
	return func(s *Scheduler) { s.transfer = fn }
}

type Scheduler struct {
	cfg      Config
	client   utils.HTTPDoer
	limiter  Limiter
	pacer    *rate.Limiter
	transfer TransferFunc

	mu    sync.Mutex
	tasks []utils.DownloadTask
}

func New(cfg Config, client utils.HTTPDoer, opts ...Option) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = utils.DefaultWorkers
	}
	s := &Scheduler{
		cfg:      cfg,
		client:   client,
		transfer: dwhttp.Transfer,
	}
	if cfg.RequestsPerSecond > 0 {
		s.pacer = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(1, cfg.Workers))
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = NewLimiter(cfg.Workers)
	}
	return s
}

func (s *Scheduler) Config() Config {
	return s.cfg
}

// Add retains tasks for Run and RunOnce.
func (s *Scheduler) Add(tasks ...utils.DownloadTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, tasks...)
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Run executes the retained tasks and keeps them, so it can be called again.
func (s *Scheduler) Run(ctx context.Context) (*DownloadResult, error) {
	s.mu.Lock()
	tasks := make([]utils.DownloadTask, len(s.tasks))
	copy(tasks, s.tasks)
	s.mu.Unlock()
	return s.RunTasks(ctx, tasks)
}

// RunOnce drains the retained tasks before executing them, so each retained
// task runs at most once across all calls.
func (s *Scheduler) RunOnce(ctx context.Context) (*DownloadResult, error) {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()
	return s.RunTasks(ctx, tasks)
}

type outcome struct {
	task utils.DownloadTask
	err  error
}

// RunTasks dispatches every task once. Tasks with an invalid URL are never
// dispatched and count as validation failures. A permit failure stops
// dispatching, waits for running transfers and returns a *SchedulerError.
func (s *Scheduler) RunTasks(ctx context.Context, tasks []utils.DownloadTask) (*DownloadResult, error) {
	log := utils.GetLogger("scheduler")
	log.Debug().Int("tasks", len(tasks)).Int("workers", s.cfg.Workers).Msg("Starting batch")

	agg := newAggregator(len(tasks))
	outcomes := make(chan outcome, len(tasks))
	var wg sync.WaitGroup
	var fatal error
	dispatched := 0

	for _, task := range tasks {
		if err := utils.ValidateURL(task.URL); err != nil {
			te := utils.NewTaskError(utils.PhaseValidation, task, err)
			if task.Reporter != nil {
				task.Reporter.OnError(te)
			}
			log.Warn().Str("task", task.ID).Str("url", task.URL).Msg("Rejected invalid URL")
			agg.add(task, te)
			continue
		}
		if err := s.acquire(ctx); err != nil {
			fatal = &SchedulerError{Dispatched: dispatched, Err: err}
			log.Error().Err(err).Int("dispatched", dispatched).Msg("Could not acquire permit, aborting batch")
			break
		}
		dispatched++
		wg.Add(1)
		log.Debug().Str("task", task.ID).Str("url", task.URL).Str("output", task.OutputPath).Msg("Dispatching task")
		go func(task utils.DownloadTask) {
			defer wg.Done()
			defer s.limiter.Release()
			outcomes <- outcome{task: task, err: s.transfer(ctx, s.client, task)}
		}(task)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()
	for o := range outcomes {
		agg.add(o.task, o.err)
	}

	if fatal != nil {
		return nil, fatal
	}
	result := agg.result()
	log.Debug().Int("total", result.Total()).Int("failed", len(result.failures)).Msg("Batch finished")
	return result, nil
}

func (s *Scheduler) acquire(ctx context.Context) error {
	if err := s.limiter.Acquire(ctx); err != nil {
		return fmt.Errorf("acquire permit: %w", err)
	}
	if s.pacer != nil {
		if err := s.pacer.Wait(ctx); err != nil {
			s.limiter.Release()
			return fmt.Errorf("wait for request slot: %w", err)
		}
	}
	return nil
}
