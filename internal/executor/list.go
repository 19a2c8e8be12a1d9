package executor

import (
	"context"
	"fmt"

	"github.com/yairfalse/shotty/internal/filter"
	"github.com/yairfalse/shotty/pkg/resource"
)

// ListInstances returns the selected instances.
func (e *Executor) ListInstances(ctx context.Context, sel filter.Selection) ([]resource.Instance, error) {
	return filter.Resolve(ctx, e.provider, sel)
}

// ListVolumes returns the volumes attached to the selected instances,
// grouped by instance in selection order.
func (e *Executor) ListVolumes(ctx context.Context, sel filter.Selection) ([]resource.Volume, error) {
	instances, err := filter.Resolve(ctx, e.provider, sel)
	if err != nil {
		return nil, err
	}

	var volumes []resource.Volume
	for _, instance := range instances {
		vols, err := e.provider.ListVolumes(ctx, instance.ID)
		if err != nil {
			return nil, fmt.Errorf("list volumes of %s: %w", instance.ID, err)
		}
		volumes = append(volumes, vols...)
	}
	return volumes, nil
}

// ListSnapshots returns snapshots of every volume of the selected instances.
// Unless all is set, each volume's listing stops after the first completed
// snapshot in provider order.
func (e *Executor) ListSnapshots(ctx context.Context, sel filter.Selection, all bool) ([]resource.Snapshot, error) {
	volumes, err := e.ListVolumes(ctx, sel)
	if err != nil {
		return nil, err
	}

	var snapshots []resource.Snapshot
	for _, volume := range volumes {
		snaps, err := e.provider.ListSnapshots(ctx, volume.ID)
		if err != nil {
			return nil, fmt.Errorf("list snapshots of %s: %w", volume.ID, err)
		}
		snapshots = append(snapshots, visibleSnapshots(snaps, all)...)
	}
	return snapshots, nil
}

// visibleSnapshots walks snaps in the order given. The cut-off depends
// on that order, not on start time.
func visibleSnapshots(snaps []resource.Snapshot, all bool) []resource.Snapshot {
	if all {
		return snaps
	}
	var out []resource.Snapshot
	for _, s := range snaps {
		out = append(out, s)
		if s.IsCompleted() {
			break
		}
	}
	return out
}
