package reporter

import (
	"net/http"
	"sync"
)

type EventKind string

const (
	EventRequest       EventKind = "request"
	EventResponse      EventKind = "response"
	EventFileExists    EventKind = "file-exists"
	EventFileCreate    EventKind = "file-create"
	EventFileSizeKnown EventKind = "file-size-known"
	EventStartDownload EventKind = "start-download"
	EventProgress      EventKind = "progress"
	EventComplete      EventKind = "complete"
	EventError         EventKind = "error"
)

type Event struct {
	Kind       EventKind
	URL        string
	Path       string
	Overwrite  bool
	StatusCode int
	Size       int64
	Delta      int64
	Err        error
}

// Recorder keeps every event it receives. It is safe for concurrent use, so
// one Recorder may observe many tasks, though their events then interleave.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) OnRequest(url string) {
	r.record(Event{Kind: EventRequest, URL: url})
}

func (r *Recorder) OnResponse(resp *http.Response) {
	r.record(Event{Kind: EventResponse, StatusCode: resp.StatusCode})
}

func (r *Recorder) OnFileExists(path string, overwrite bool) {
	r.record(Event{Kind: EventFileExists, Path: path, Overwrite: overwrite})
}

func (r *Recorder) OnFileCreate(path string) {
	r.record(Event{Kind: EventFileCreate, Path: path})
}

func (r *Recorder) OnFileSizeKnown(size int64) {
	r.record(Event{Kind: EventFileSizeKnown, Size: size})
}

func (r *Recorder) OnStartDownload(url, path string) {
	r.record(Event{Kind: EventStartDownload, URL: url, Path: path})
}

func (r *Recorder) OnProgress(delta int64) {
	r.record(Event{Kind: EventProgress, Delta: delta})
}

func (r *Recorder) OnComplete(url, path string) {
	r.record(Event{Kind: EventComplete, URL: url, Path: path})
}

func (r *Recorder) OnError(err error) {
	r.record(Event{Kind: EventError, Err: err})
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the recorded event kinds with consecutive progress events
// collapsed into one, which keeps sequence assertions independent of chunking.
func (r *Recorder) Kinds() []EventKind {
	var kinds []EventKind
	for _, e := range r.Events() {
		if e.Kind == EventProgress && len(kinds) > 0 && kinds[len(kinds)-1] == EventProgress {
			continue
		}
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func (r *Recorder) ProgressTotal() int64 {
	var total int64
	for _, e := range r.Events() {
		if e.Kind == EventProgress {
			total += e.Delta
		}
	}
	return total
}

func (r *Recorder) Count(kind EventKind) int {
	n := 0
	for _, e := range r.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
