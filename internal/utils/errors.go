package utils

import (
	"errors"
	"fmt"
)

// Phase names the pipeline step a task failed in.
type Phase string

const (
	PhaseValidation        Phase = "validation"
	PhaseDestinationExists Phase = "destination-exists"
	PhaseRequest           Phase = "request"
	PhaseResponseStatus    Phase = "response-status"
	PhaseFileSystem        Phase = "file-system"
	PhaseStream            Phase = "stream"
	PhaseUnknown           Phase = "unknown"
)

var (
	ErrInvalidURL        = errors.New("invalid URL")
	ErrDestinationExists = errors.New("destination already exists")
	ErrBadStatus         = errors.New("unexpected response status")
)

// TaskError is the failure outcome of a single task.
type TaskError struct {
	Phase      Phase
	URL        string
	OutputPath string
	StatusCode int
	Err        error
}

func (e *TaskError) Error() string {
	if e.OutputPath == "" {
		return fmt.Sprintf("%s %s: %v", e.Phase, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s -> %s: %v", e.Phase, e.URL, e.OutputPath, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

func (e *TaskError) Describe() (phase, url string, cause error) {
	return string(e.Phase), e.URL, e.Err
}

func NewTaskError(phase Phase, task DownloadTask, err error) *TaskError {
	return &TaskError{
		Phase:      phase,
		URL:        task.URL,
		OutputPath: task.OutputPath,
		Err:        err,
	}
}

// AsTaskError returns err as a *TaskError, wrapping foreign errors with
// PhaseUnknown so callers always get a phase to inspect.
func AsTaskError(task DownloadTask, err error) *TaskError {
	var te *TaskError
	if errors.As(err, &te) {
		return te
	}
	return NewTaskError(PhaseUnknown, task, err)
}
