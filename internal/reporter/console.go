package reporter

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/tanq16/dw/internal/output"
)

type ConsoleOptions struct {
	MessageOnResponse   string
	MessageOnFileExists string
}

// ConsoleFactory hands out one Console per task, all drawing into the same
// output.Manager.
type ConsoleFactory struct {
	manager *output.Manager
	opts    ConsoleOptions
}

func NewConsoleFactory(manager *output.Manager, opts ConsoleOptions) *ConsoleFactory {
	return &ConsoleFactory{manager: manager, opts: opts}
}

func (f *ConsoleFactory) Create() Reporter {
	return &Console{
		manager: f.manager,
		opts:    f.opts,
		id:      f.manager.Register(""),
	}
}

// Console reports one task as a line of the shared display.
type Console struct {
	manager *output.Manager
	opts    ConsoleOptions
	id      int
}

func (c *Console) OnRequest(url string) {
	c.manager.SetLabel(c.id, url)
	c.manager.SetMessage(c.id, "requesting")
}

func (c *Console) OnResponse(resp *http.Response) {
	msg := c.opts.MessageOnResponse
	if msg == "" {
		msg = resp.Status
	}
	c.manager.SetMessage(c.id, msg)
}

func (c *Console) OnFileExists(path string, overwrite bool) {
	c.manager.SetLabel(c.id, filepath.Base(path))
	if overwrite {
		c.manager.SetMessage(c.id, "replacing existing file")
		return
	}
	msg := c.opts.MessageOnFileExists
	if msg == "" {
		msg = fmt.Sprintf("file exists: %s (use --force to overwrite)", path)
	}
	c.manager.SetStatus(c.id, "warning")
	c.manager.SetMessage(c.id, msg)
}

func (c *Console) OnFileCreate(path string) {
	c.manager.SetMessage(c.id, fmt.Sprintf("saving as %s", path))
}

func (c *Console) OnFileSizeKnown(size int64) {
	c.manager.SetTotal(c.id, size)
}

func (c *Console) OnStartDownload(url, path string) {
	c.manager.SetLabel(c.id, filepath.Base(path))
	c.manager.SetMessage(c.id, "downloading")
	c.manager.StartTransfer(c.id)
}

func (c *Console) OnProgress(delta int64) {
	c.manager.AddProgress(c.id, delta)
}

func (c *Console) OnComplete(url, path string) {
	c.manager.Complete(c.id, fmt.Sprintf("Completed %s", path))
}

func (c *Console) OnError(err error) {
	c.manager.ReportError(c.id, err)
}
