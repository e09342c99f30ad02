package utils

import (
	"net/http"

	"github.com/tanq16/dw/internal/reporter"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DownloadTask is one URL to destination transfer. Once dispatched it is owned
// by a single pipeline run and never touched by another.
type DownloadTask struct {
	ID         string
	URL        string
	OutputPath string
	Overwrite  bool
	Reporter   reporter.Reporter
}
