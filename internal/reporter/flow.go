package reporter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/tanq16/dw/internal/output"
)

type FlowOptions struct {
	MessageOnStart   string
	MessageOnFinish  string
	MessageOnSuccess string
	MessageOnErrors  string
	ShowSuccess      bool
	ShowErrors       bool
}

// FlowReporter prints batch level messages around a run.
type FlowReporter struct {
	out  io.Writer
	opts FlowOptions
}

// describer is implemented by task failures that know their phase and URL.
type describer interface {
	Describe() (phase, url string, cause error)
}

func NewFlowReporter(out io.Writer, opts FlowOptions) *FlowReporter {
	return &FlowReporter{out: out, opts: opts}
}

func (f *FlowReporter) print(message string) {
	if message != "" {
		fmt.Fprintln(f.out, message)
	}
}

func (f *FlowReporter) OnStart() {
	if f.opts.MessageOnStart != "" {
		output.PrintHeader(f.out, f.opts.MessageOnStart)
	}
}

func (f *FlowReporter) OnFinish() {
	f.print(f.opts.MessageOnFinish)
}

func (f *FlowReporter) OnSuccess() {
	if f.opts.ShowSuccess && f.opts.MessageOnSuccess != "" {
		output.PrintSuccess(f.out, f.opts.MessageOnSuccess)
	}
}

func (f *FlowReporter) OnErrors(errs []error) {
	if !f.opts.ShowErrors || len(errs) == 0 {
		return
	}
	header := f.opts.MessageOnErrors
	if header == "" {
		header = fmt.Sprintf("%d download(s) failed:", len(errs))
	}
	output.PrintError(f.out, header)
	t := output.NewTable("#", "Phase", "URL", "Error")
	for i, err := range errs {
		phase, url, cause := "", "", err
		if d, ok := err.(describer); ok {
			phase, url, cause = d.Describe()
		}
		t.AddRow(strconv.Itoa(i+1), phase, url, output.FError(cause.Error()))
	}
	fmt.Fprintln(f.out, t.String())
}
