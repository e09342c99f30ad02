package scheduler

import (
	"errors"

	"github.com/tanq16/dw/internal/reporter"
	"github.com/tanq16/dw/internal/utils"
)

var ErrNoTasks = errors.New("no download tasks provided")

// Builder assembles a Scheduler from URLs. URLs are not rejected here; the
// scheduler reports invalid ones as validation failures so they still count
// toward the batch total.
type Builder struct {
	cfg     Config
	client  utils.HTTPDoer
	factory reporter.Factory
	opts    []Option
	tasks   []utils.DownloadTask
}

func NewBuilder(cfg Config) *Builder {
	return &Builder{cfg: cfg}
}

func (b *Builder) WithClient(client utils.HTTPDoer) *Builder {
	b.client = client
	return b
}

// WithReporterFactory sets the factory used by AddURL when no reporter is given.
func (b *Builder) WithReporterFactory(f reporter.Factory) *Builder {
	b.factory = f
	return b
}

func (b *Builder) WithOptions(opts ...Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// AddTask adds a task with an explicit output path and reporter.
func (b *Builder) AddTask(url, outputPath string, overwrite bool, rep reporter.Reporter) *Builder {
	if rep == nil {
		if b.factory != nil {
			rep = b.factory.Create()
		} else {
			rep = reporter.Silent{}
		}
	}
	b.tasks = append(b.tasks, utils.DownloadTask{
		ID:         utils.NewTaskID(),
		URL:        url,
		OutputPath: outputPath,
		Overwrite:  overwrite,
		Reporter:   rep,
	})
	return b
}

// AddURL adds a task whose output path is derived from target and the URL.
func (b *Builder) AddURL(url, target string, overwrite bool) *Builder {
	return b.AddTask(url, utils.ResolveOutputPath(target, url), overwrite, nil)
}

func (b *Builder) Build() (*Scheduler, error) {
	if len(b.tasks) == 0 {
		return nil, ErrNoTasks
	}
	client := b.client
	if client == nil {
		client = utils.NewHTTPClient(utils.HTTPClientConfig{})
	}
	s := New(b.cfg, client, b.opts...)
	s.Add(b.tasks...)
	return s, nil
}
