package executor

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/yairfalse/shotty/internal/filter"
	"github.com/yairfalse/shotty/pkg/resource"
)

type lifecycleAction struct {
	name string
	verb string
	do   func(ctx context.Context, instanceID string) error
}

// Stop requests a stop of every selected instance.
func (e *Executor) Stop(ctx context.Context, sel filter.Selection, force bool) (*Result, error) {
	return e.lifecycle(ctx, sel, force, lifecycleAction{
		name: resource.ActionStop,
		verb: "Stopping",
		do:   e.provider.StopInstance,
	})
}

// Start requests a start of every selected instance.
func (e *Executor) Start(ctx context.Context, sel filter.Selection, force bool) (*Result, error) {
	return e.lifecycle(ctx, sel, force, lifecycleAction{
		name: resource.ActionStart,
		verb: "Starting",
		do:   e.provider.StartInstance,
	})
}

// Reboot requests a reboot of every selected instance.
func (e *Executor) Reboot(ctx context.Context, sel filter.Selection, force bool) (*Result, error) {
	return e.lifecycle(ctx, sel, force, lifecycleAction{
		name: resource.ActionReboot,
		verb: "Rebooting",
		do:   e.provider.RebootInstance,
	})
}

func (e *Executor) lifecycle(ctx context.Context, sel filter.Selection, force bool, action lifecycleAction) (*Result, error) {
	if err := CheckScope(sel, force); err != nil {
		return nil, err
	}

	instances, err := filter.Resolve(ctx, e.provider, sel)
	if err != nil {
		return nil, err
	}

	result := newResult(action.name, e.dryRun)
	for _, instance := range instances {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		ok, err := e.allowed(ctx, result, action.name, instance)
		if err != nil {
			return result, err
		}
		if !ok {
			continue
		}

		if err := e.runAction(ctx, result, action, instance.ID); err != nil {
			return result, err
		}
	}

	logBatch(action.name, sel, result)

	return result, nil
}

// runAction performs one action on one instance. Provider errors are
// reported and recorded; the returned error is only set for failures
// that must abort the batch.
func (e *Executor) runAction(ctx context.Context, result *Result, action lifecycleAction, instanceID string) error {
	e.say("%s %s...", action.verb, instanceID)

	event := resource.Event{
		Action:     action.name,
		ResourceID: instanceID,
		InstanceID: instanceID,
		Outcome:    resource.OutcomeSuccess,
	}
	if e.dryRun {
		e.record(ctx, result, event)
		return nil
	}

	if err := action.do(ctx, instanceID); err != nil {
		apiErr, ok := providerError(err)
		if !ok {
			return err
		}
		e.say("Could not %s %s: %s", action.name, instanceID, describeAPIError(apiErr))
		log.Warn().Err(err).Str("instance_id", instanceID).Str("action", action.name).Msg("action failed")

		event.Outcome = resource.OutcomeFailed
		event.Error = describeAPIError(apiErr)
		e.record(ctx, result, event)
		return nil
	}

	e.record(ctx, result, event)
	return nil
}
