package scheduler

import (
	"github.com/tanq16/dw/internal/utils"
)

// DownloadResult is the outcome of one batch: how many tasks were submitted
// and which of them failed, in the order the failures arrived.
type DownloadResult struct {
	total    int
	failures []*utils.TaskError
}

func (r *DownloadResult) Total() int {
	return r.total
}

func (r *DownloadResult) Failures() []*utils.TaskError {
	out := make([]*utils.TaskError, len(r.failures))
	copy(out, r.failures)
	return out
}

func (r *DownloadResult) Failed() bool {
	return len(r.failures) > 0
}

func (r *DownloadResult) Succeeded() int {
	return r.total - len(r.failures)
}

// Errors returns the failures as plain errors.
func (r *DownloadResult) Errors() []error {
	errs := make([]error, len(r.failures))
	for i, f := range r.failures {
		errs[i] = f
	}
	return errs
}

// aggregator folds task outcomes into a DownloadResult. It is used from a
// single goroutine.
type aggregator struct {
	total    int
	failures []*utils.TaskError
}

func newAggregator(total int) *aggregator {
	return &aggregator{total: total}
}

func (a *aggregator) add(task utils.DownloadTask, err error) {
	if err == nil {
		return
	}
	a.failures = append(a.failures, utils.AsTaskError(task, err))
}

func (a *aggregator) result() *DownloadResult {
	failures := make([]*utils.TaskError, len(a.failures))
	copy(failures, a.failures)
	return &DownloadResult{total: a.total, failures: failures}
}
