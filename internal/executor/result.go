package executor

import (
	"github.com/yairfalse/shotty/pkg/resource"
)

// Result summarises one command run.
type Result struct {
	Command   string           `json:"command" yaml:"command"`
	DryRun    bool             `json:"dry_run" yaml:"dry_run"`
	Succeeded int              `json:"succeeded" yaml:"succeeded"`
	Failed    int              `json:"failed" yaml:"failed"`
	Skipped   int              `json:"skipped" yaml:"skipped"`
	Events    []resource.Event `json:"events" yaml:"events"`
}

func newResult(command string, dryRun bool) *Result {
	return &Result{Command: command, DryRun: dryRun, Events: []resource.Event{}}
}

func (r *Result) add(event resource.Event) {
	r.Events = append(r.Events, event)
	switch event.Outcome {
	case resource.OutcomeSuccess, resource.OutcomeDryRun:
		r.Succeeded++
	case resource.OutcomeFailed:
		r.Failed++
	case resource.OutcomeSkipped:
		r.Skipped++
	}
}

// HasFailures reports whether any step failed.
func (r *Result) HasFailures() bool {
	return r.Failed > 0
}
