// Package reporter defines the lifecycle events a transfer emits and the
// observers that consume them.
//
// Events for one task arrive strictly in pipeline order from a single
// goroutine. A Reporter shared between tasks must be safe for concurrent use;
// a Factory can instead mint one Reporter per task.
package reporter

import "net/http"

type Reporter interface {
	OnRequest(url string)
	OnResponse(resp *http.Response)
	OnFileExists(path string, overwrite bool)
	OnFileCreate(path string)
	// OnFileSizeKnown receives the declared Content-Length, or -1.
	OnFileSizeKnown(size int64)
	OnStartDownload(url, path string)
	OnProgress(delta int64)
	OnComplete(url, path string)
	OnError(err error)
}

type Factory interface {
	Create() Reporter
}

// FactoryFunc adapts a plain function to Factory.
type FactoryFunc func() Reporter

func (f FactoryFunc) Create() Reporter {
	return f()
}
