// Package executor runs shotty commands against a resource provider.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"

	"github.com/yairfalse/shotty/internal/emitter"
	"github.com/yairfalse/shotty/internal/filter"
	"github.com/yairfalse/shotty/internal/policy"
	"github.com/yairfalse/shotty/pkg/resource"
)

// ErrRefused is returned when a state-changing command has no scope
// (no project, no instance) and was not forced.
var ErrRefused = errors.New("refusing to act on every instance: specify --project, --instance or --force")

// Provider is everything the executor needs from the cloud.
type Provider interface {
	filter.InstanceLister
	ListVolumes(ctx context.Context, instanceID string) ([]resource.Volume, error)
	ListSnapshots(ctx context.Context, volumeID string) ([]resource.Snapshot, error)
	StopInstance(ctx context.Context, instanceID string) error
	StartInstance(ctx context.Context, instanceID string) error
	RebootInstance(ctx context.Context, instanceID string) error
	WaitUntilStopped(ctx context.Context, instanceID string) error
	WaitUntilRunning(ctx context.Context, instanceID string) error
	CreateSnapshot(ctx context.Context, req resource.SnapshotRequest) (resource.Snapshot, error)
}

// Options configure an Executor. Zero values are usable.
type Options struct {
	// Out receives the human-readable progress lines.
	Out io.Writer
	// Emitter receives one event per step taken.
	Emitter emitter.Emitter
	// Guard can veto actions per instance.
	Guard policy.Guard
	// Description is set on created snapshots.
	Description string
	// DryRun reports what would happen without mutating anything.
	DryRun bool
	// Now is the clock used for age gating and event timestamps.
	Now func() time.Time
}

// Executor runs commands sequentially, one instance at a time.
type Executor struct {
	provider    Provider
	out         io.Writer
	emitter     emitter.Emitter
	guard       policy.Guard
	description string
	dryRun      bool
	now         func() time.Time
}

// New creates an executor bound to provider.
func New(provider Provider, opts Options) *Executor {
	e := &Executor{
		provider:    provider,
		out:         opts.Out,
		emitter:     opts.Emitter,
		guard:       opts.Guard,
		description: opts.Description,
		dryRun:      opts.DryRun,
		now:         opts.Now,
	}
	if e.out == nil {
		e.out = io.Discard
	}
	if e.emitter == nil {
		e.emitter = emitter.Nop{}
	}
	if e.guard == nil {
		e.guard = policy.AllowAll{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// CheckScope enforces the refusal rule. Callers run it before opening a
// session so a refused command touches nothing.
func CheckScope(sel filter.Selection, force bool) error {
	if !sel.Scoped() && !force {
		return ErrRefused
	}
	return nil
}

// say prints one progress line.
func (e *Executor) say(format string, args ...any) {
	if e.dryRun {
		format = "[dry-run] " + format
	}
	fmt.Fprintf(e.out, format+"\n", args...)
}

// record stores the event in the result and hands it to the emitter.
func (e *Executor) record(ctx context.Context, result *Result, event resource.Event) {
	if event.Time.IsZero() {
		event.Time = e.now()
	}
	if e.dryRun && event.Outcome == resource.OutcomeSuccess {
		event.Outcome = resource.OutcomeDryRun
	}
	result.add(event)

	if err := e.emitter.Emit(ctx, event); err != nil {
		log.Warn().Err(err).Str("action", event.Action).Msg("emit failed")
	}
}

// allowed consults the guard. A denied instance is recorded as skipped.
func (e *Executor) allowed(ctx context.Context, result *Result, action string, instance resource.Instance) (bool, error) {
	decision, err := e.guard.Check(ctx, action, instance)
	if err != nil {
		return false, fmt.Errorf("policy check for %s: %w", instance.ID, err)
	}
	if decision.Allowed {
		return true, nil
	}

	reason := fmt.Sprintf("denied by policy: %v", decision.Reasons)
	e.say("Skipping %s, %s", instance.ID, reason)
	e.record(ctx, result, resource.Event{
		Action:     action,
		ResourceID: instance.ID,
		InstanceID: instance.ID,
		Outcome:    resource.OutcomeSkipped,
		Reason:     reason,
	})
	return false, nil
}

// logBatch reports the outcome of a finished batch.
func logBatch(action string, sel filter.Selection, result *Result) {
	ev := log.Info()
	if result.HasFailures() {
		ev = log.Warn()
	}
	ev.Str("action", action).
		Str("selection", sel.String()).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("batch complete")
}

// providerError extracts the provider's error when err came from the API.
// Anything else is unexpected and aborts the batch.
func providerError(err error) (smithy.APIError, bool) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func describeAPIError(apiErr smithy.APIError) string {
	if msg := apiErr.ErrorMessage(); msg != "" {
		return apiErr.ErrorCode() + ": " + msg
	}
	return apiErr.ErrorCode()
}
