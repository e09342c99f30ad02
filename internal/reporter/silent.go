package reporter

import "net/http"

// Silent discards every event.
type Silent struct{}

var SilentFactory = FactoryFunc(func() Reporter { return Silent{} })

func (Silent) OnRequest(string) {}
func (Silent) OnResponse(*http.Response) {}
func (Silent) OnFileExists(string, bool) {}
func (Silent) OnFileCreate(string) {}
func (Silent) OnFileSizeKnown(int64) {}
func (Silent) OnStartDownload(string, string) {}
func (Silent) OnProgress(int64) {}
func (Silent) OnComplete(string, string) {}
func (Silent) OnError(error) {}
