package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tanq16/dw/internal/reporter"
	"github.com/tanq16/dw/internal/scheduler"
	"github.com/tanq16/dw/internal/utils"
)

func TestWrapCountsEvents(t *testing.T) {
	c := NewCollector()
	rec := reporter.NewRecorder()
	rep := c.Wrap(rec)

	rep.OnRequest("https://example.com/a")
	rep.OnProgress(100)
	rep.OnProgress(50)
	rep.OnComplete("https://example.com/a", "a")
	rep.OnError(&utils.TaskError{Phase: utils.PhaseStream, Err: errors.New("reset")})
	rep.OnError(errors.New("foreign"))

	if got := testutil.ToFloat64(c.requests); got != 1 {
		t.Errorf("requests = %v", got)
	}
	if got := testutil.ToFloat64(c.bytes); got != 150 {
		t.Errorf("bytes = %v", got)
	}
	if got := testutil.ToFloat64(c.completed); got != 1 {
		t.Errorf("completed = %v", got)
	}
	if got := testutil.ToFloat64(c.failed.WithLabelValues("stream")); got != 1 {
		t.Errorf("stream failures = %v", got)
	}
	if got := testutil.ToFloat64(c.failed.WithLabelValues("unknown")); got != 1 {
		t.Errorf("unknown failures = %v", got)
	}
	// events still reach the wrapped reporter
	if rec.ProgressTotal() != 150 || rec.Count(reporter.EventError) != 2 {
		t.Errorf("wrapped reporter saw %v", rec.Kinds())
	}
}

func TestWrapNil(t *testing.T) {
	c := NewCollector()
	c.Wrap(nil).OnRequest("https://example.com")
	if got := testutil.ToFloat64(c.requests); got != 1 {
		t.Errorf("requests = %v", got)
	}
}

func TestInstrumentLimiter(t *testing.T) {
	c := NewCollector()
	l := c.InstrumentLimiter(scheduler.NewLimiter(2))
	ctx := context.Background()
	if err := l.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(c.permits); got != 2 {
		t.Errorf("permits = %v, want 2", got)
	}
	l.Release()
	if got := testutil.ToFloat64(c.permits); got != 1 {
		t.Errorf("permits = %v, want 1", got)
	}
	l.Release()
}

func TestSchedulerRunIsObserved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, "payload")
	}))
	defer server.Close()

	c := NewCollector()
	dir := t.TempDir()
	s, err := scheduler.NewBuilder(scheduler.Config{Workers: 2}).
		WithClient(server.Client()).
		WithReporterFactory(c.WrapFactory(reporter.SilentFactory)).
		WithOptions(scheduler.WithLimiter(c.InstrumentLimiter(scheduler.NewLimiter(2)))).
		AddURL(server.URL+"/a.txt", dir, false).
		AddURL(server.URL+"/b.txt", dir, false).
		AddURL(server.URL+"/missing", dir, false).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Total() != 3 || len(result.Failures()) != 1 {
		t.Fatalf("total=%d failures=%d", result.Total(), len(result.Failures()))
	}
	if got := testutil.ToFloat64(c.completed); got != 2 {
		t.Errorf("completed = %v", got)
	}
	if got := testutil.ToFloat64(c.failed.WithLabelValues("response-status")); got != 1 {
		t.Errorf("response-status failures = %v", got)
	}
	if got := testutil.ToFloat64(c.bytes); got != 14 {
		t.Errorf("bytes = %v, want 14", got)
	}
	if got := testutil.ToFloat64(c.permits); got != 0 {
		t.Errorf("permits still held: %v", got)
	}

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "dw_downloads_completed_total 2") {
		t.Errorf("metrics output missing completed counter:\n%s", rr.Body.String())
	}
}
