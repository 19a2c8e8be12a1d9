package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yairfalse/shotty/internal/filter"
	"github.com/yairfalse/shotty/pkg/resource"
)

// InstanceIDTag is set on every snapshot shotty creates.
const InstanceIDTag = "shotty:instance-id"

// SnapshotOptions control create_snapshot.
type SnapshotOptions struct {
	Force bool
	// AgeGated limits snapshots to volumes whose newest snapshot started
	// more than MaxAge ago. Volumes without snapshots always qualify.
	AgeGated bool
	MaxAge   time.Duration
}

// CreateSnapshots stops each selected instance, snapshots its volumes and
// restarts it if it was running before.
//
// Provider errors on a single instance or volume are reported and the
// batch moves on. A failed wait leaves the instance in an unknown state
// and aborts the batch.
func (e *Executor) CreateSnapshots(ctx context.Context, sel filter.Selection, opts SnapshotOptions) (*Result, error) {
	if err := CheckScope(sel, opts.Force); err != nil {
		return nil, err
	}

	instances, err := filter.Resolve(ctx, e.provider, sel)
	if err != nil {
		return nil, err
	}

	result := newResult(resource.ActionCreateSnapshot, e.dryRun)
	for _, instance := range instances {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		ok, err := e.allowed(ctx, result, resource.ActionCreateSnapshot, instance)
		if err != nil {
			return result, err
		}
		if !ok {
			continue
		}

		if err := e.snapshotInstance(ctx, result, instance, opts); err != nil {
			return result, err
		}
	}

	e.say("Job is done")
	logBatch(resource.ActionCreateSnapshot, sel, result)

	return result, nil
}

func (e *Executor) snapshotInstance(ctx context.Context, result *Result, instance resource.Instance, opts SnapshotOptions) error {
	volumes, err := e.provider.ListVolumes(ctx, instance.ID)
	if err != nil {
		return e.reportProviderError(ctx, result, err, resource.Event{
			Action:     resource.ActionCreateSnapshot,
			ResourceID: instance.ID,
			InstanceID: instance.ID,
		}, "Could not list volumes of %s", instance.ID)
	}

	candidates := volumes
	if opts.AgeGated {
		candidates, err = e.staleVolumes(ctx, result, instance, volumes, opts.MaxAge)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			e.say("Skipping %s, every volume has a snapshot newer than %s", instance.ID, formatAge(opts.MaxAge))
			e.record(ctx, result, resource.Event{
				Action:     resource.ActionCreateSnapshot,
				ResourceID: instance.ID,
				InstanceID: instance.ID,
				Outcome:    resource.OutcomeSkipped,
				Reason:     "snapshots are recent",
			})
			return nil
		}
	}

	wasRunning := instance.IsRunning()
	if instance.State != resource.StateStopped {
		// the snapshot stops the instance, so a stop policy applies too
		ok, err := e.allowed(ctx, result, resource.ActionStop, instance)
		if err != nil || !ok {
			return err
		}
		stopped, err := e.stopAndWait(ctx, result, instance.ID)
		if err != nil || !stopped {
			return err
		}
	}

	for _, volume := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.snapshotVolume(ctx, result, instance, volume); err != nil {
			return err
		}
	}

	if !wasRunning {
		log.Debug().Str("instance_id", instance.ID).Str("state", instance.State).Msg("instance was not running, leaving it stopped")
		return nil
	}
	return e.startAndWait(ctx, result, instance.ID)
}

// staleVolumes returns the volumes that need a snapshot under the age gate.
// The newest snapshot is found by start time, not provider order.
func (e *Executor) staleVolumes(ctx context.Context, result *Result, instance resource.Instance, volumes []resource.Volume, maxAge time.Duration) ([]resource.Volume, error) {
	cutoff := e.now().Add(-maxAge)

	var stale []resource.Volume
	for _, volume := range volumes {
		snaps, err := e.provider.ListSnapshots(ctx, volume.ID)
		if err != nil {
			if err := e.reportProviderError(ctx, result, err, resource.Event{
				Action:     resource.ActionCreateSnapshot,
				ResourceID: volume.ID,
				InstanceID: instance.ID,
			}, "Could not list snapshots of %s", volume.ID); err != nil {
				return nil, err
			}
			continue
		}

		newest, ok := resource.Newest(snaps)
		if !ok || newest.StartTime.Before(cutoff) {
			stale = append(stale, volume)
			continue
		}
		log.Debug().
			Str("volume_id", volume.ID).
			Str("snapshot_id", newest.ID).
			Time("start_time", newest.StartTime).
			Msg("recent snapshot, not due")
	}
	return stale, nil
}

// stopAndWait reports false without error when the stop request was
// rejected by the provider.
func (e *Executor) stopAndWait(ctx context.Context, result *Result, instanceID string) (bool, error) {
	before := result.Failed
	if err := e.runAction(ctx, result, lifecycleAction{
		name: resource.ActionStop,
		verb: "Stopping",
		do:   e.provider.StopInstance,
	}, instanceID); err != nil {
		return false, err
	}
	if result.Failed > before {
		return false, nil
	}
	return true, e.wait(ctx, result, resource.ActionWaitStopped, instanceID, e.provider.WaitUntilStopped)
}

func (e *Executor) startAndWait(ctx context.Context, result *Result, instanceID string) error {
	before := result.Failed
	if err := e.runAction(ctx, result, lifecycleAction{
		name: resource.ActionStart,
		verb: "Starting",
		do:   e.provider.StartInstance,
	}, instanceID); err != nil {
		return err
	}
	if result.Failed > before {
		return nil
	}
	return e.wait(ctx, result, resource.ActionWaitRunning, instanceID, e.provider.WaitUntilRunning)
}

func (e *Executor) wait(ctx context.Context, result *Result, action, instanceID string, waitFn func(context.Context, string) error) error {
	if e.dryRun {
		return nil
	}

	start := e.now()
	err := waitFn(ctx, instanceID)
	event := resource.Event{
		Action:     action,
		ResourceID: instanceID,
		InstanceID: instanceID,
		Outcome:    resource.OutcomeSuccess,
		Duration:   e.now().Sub(start),
	}
	if err != nil {
		event.Outcome = resource.OutcomeFailed
		event.Error = err.Error()
		e.record(ctx, result, event)
		return fmt.Errorf("%s %s: %w", action, instanceID, err)
	}

	e.record(ctx, result, event)
	return nil
}

func (e *Executor) snapshotVolume(ctx context.Context, result *Result, instance resource.Instance, volume resource.Volume) error {
	event := resource.Event{
		Action:     resource.ActionCreateSnapshot,
		ResourceID: volume.ID,
		InstanceID: instance.ID,
	}

	snaps, err := e.provider.ListSnapshots(ctx, volume.ID)
	if err != nil {
		return e.reportProviderError(ctx, result, err, event, "Could not list snapshots of %s", volume.ID)
	}
	if resource.HasPending(snaps) {
		e.say("Skipping %s, snapshot already in progress", volume.ID)
		event.Outcome = resource.OutcomeSkipped
		event.Reason = "snapshot pending"
		e.record(ctx, result, event)
		return nil
	}

	e.say("Creating snapshot of %s...", volume.ID)
	event.Outcome = resource.OutcomeSuccess
	if e.dryRun {
		e.record(ctx, result, event)
		return nil
	}

	snap, err := e.provider.CreateSnapshot(ctx, resource.SnapshotRequest{
		VolumeID:    volume.ID,
		Description: e.description,
		Tags:        snapshotTags(instance),
	})
	if err != nil {
		return e.reportProviderError(ctx, result, err, event, "Could not snapshot %s", volume.ID)
	}

	log.Info().
		Str("instance_id", instance.ID).
		Str("volume_id", volume.ID).
		Str("snapshot_id", snap.ID).
		Msg("snapshot requested")
	e.record(ctx, result, event)
	return nil
}

// reportProviderError prints and records a provider error and swallows it.
// Other errors are returned unchanged.
func (e *Executor) reportProviderError(ctx context.Context, result *Result, err error, event resource.Event, format string, args ...any) error {
	apiErr, ok := providerError(err)
	if !ok {
		return err
	}

	msg := describeAPIError(apiErr)
	e.say(format+": %s", append(args, msg)...)
	log.Warn().Err(err).Str("resource_id", event.ResourceID).Msg("provider error")

	event.Outcome = resource.OutcomeFailed
	event.Error = msg
	e.record(ctx, result, event)
	return nil
}

func snapshotTags(instance resource.Instance) map[string]string {
	tags := map[string]string{InstanceIDTag: instance.ID}
	if project := instance.Project(); project != "" {
		tags[resource.ProjectTag] = project
	}
	return tags
}

func formatAge(d time.Duration) string {
	if d%(24*time.Hour) == 0 {
		return fmt.Sprintf("%d days", int(d/(24*time.Hour)))
	}
	return d.String()
}
