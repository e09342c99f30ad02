// Package metrics exposes transfer counters in Prometheus format. It observes
// tasks by wrapping their reporters and the scheduler's permit limiter.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tanq16/dw/internal/reporter"
	"github.com/tanq16/dw/internal/scheduler"
	"github.com/tanq16/dw/internal/utils"
)

const namespace = "dw"

type Collector struct {
	registry  *prometheus.Registry
	requests  prometheus.Counter
	completed prometheus.Counter
	failed    *prometheus.CounterVec
	bytes     prometheus.Counter
	permits   prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP requests started.",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_completed_total",
			Help:      "Tasks that finished successfully.",
		}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_failed_total",
			Help:      "Tasks that failed, by phase.",
		}, []string{"phase"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Bytes written to destination files.",
		}),
		permits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "permits_in_use",
			Help:      "Network permits currently held.",
		}),
	}
	c.registry.MustRegister(c.requests, c.completed, c.failed, c.bytes, c.permits)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Wrap returns a reporter that counts events and forwards them to next.
func (c *Collector) Wrap(next reporter.Reporter) reporter.Reporter {
	if next == nil {
		next = reporter.Silent{}
	}
	return &countingReporter{Reporter: next, c: c}
}

func (c *Collector) WrapFactory(f reporter.Factory) reporter.Factory {
	return reporter.FactoryFunc(func() reporter.Reporter {
		return c.Wrap(f.Create())
	})
}

type countingReporter struct {
	reporter.Reporter
	c *Collector
}

func (r *countingReporter) OnRequest(url string) {
	r.c.requests.Inc()
	r.Reporter.OnRequest(url)
}

func (r *countingReporter) OnProgress(delta int64) {
	r.c.bytes.Add(float64(delta))
	r.Reporter.OnProgress(delta)
}

func (r *countingReporter) OnComplete(url, path string) {
	r.c.completed.Inc()
	r.Reporter.OnComplete(url, path)
}

func (r *countingReporter) OnError(err error) {
	phase := string(utils.PhaseUnknown)
	var te *utils.TaskError
	if errors.As(err, &te) {
		phase = string(te.Phase)
	}
	r.c.failed.WithLabelValues(phase).Inc()
	r.Reporter.OnError(err)
}

// InstrumentLimiter tracks held permits in the permits_in_use gauge.
func (c *Collector) InstrumentLimiter(l scheduler.Limiter) scheduler.Limiter {
	return &gaugedLimiter{Limiter: l, gauge: c.permits}
}

type gaugedLimiter struct {
	scheduler.Limiter
	gauge prometheus.Gauge
}

func (l *gaugedLimiter) Acquire(ctx context.Context) error {
	if err := l.Limiter.Acquire(ctx); err != nil {
		return err
	}
	l.gauge.Inc()
	return nil
}

func (l *gaugedLimiter) Release() {
	l.gauge.Dec()
	l.Limiter.Release()
}
