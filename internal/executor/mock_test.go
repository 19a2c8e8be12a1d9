package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/yairfalse/shotty/pkg/resource"
)

// fakeProvider is an in-memory account. Every call is appended to calls
// as "<op> <id>" so tests can assert on exact sequences.
type fakeProvider struct {
	instances []resource.Instance
	volumes   map[string][]resource.Volume
	snapshots map[string][]resource.Snapshot

	stopErr     map[string]error
	startErr    map[string]error
	rebootErr   map[string]error
	snapshotErr map[string]error
	listSnapErr map[string]error
	waitErr     map[string]error
	listErr     error

	calls   []string
	created []resource.SnapshotRequest
}

func newFakeProvider(instances ...resource.Instance) *fakeProvider {
	return &fakeProvider{
		instances: instances,
		volumes:   make(map[string][]resource.Volume),
		snapshots: make(map[string][]resource.Snapshot),
	}
}

func (f *fakeProvider) ListInstances(_ context.Context, q resource.Query) ([]resource.Instance, error) {
	f.calls = append(f.calls, "list_instances")
	if f.listErr != nil {
		return nil, f.listErr
	}

	var out []resource.Instance
	for _, inst := range f.instances {
		if len(q.InstanceIDs) > 0 && !contains(q.InstanceIDs, inst.ID) {
			continue
		}
		if !matchesTags(inst, q.Tags) {
			continue
		}
		out = append(out, inst)
	}
	return out, nil
}

func (f *fakeProvider) ListVolumes(_ context.Context, instanceID string) ([]resource.Volume, error) {
	f.calls = append(f.calls, "list_volumes "+instanceID)
	return f.volumes[instanceID], nil
}

func (f *fakeProvider) ListSnapshots(_ context.Context, volumeID string) ([]resource.Snapshot, error) {
	f.calls = append(f.calls, "list_snapshots "+volumeID)
	if err := f.listSnapErr[volumeID]; err != nil {
		return nil, err
	}
	return f.snapshots[volumeID], nil
}

func (f *fakeProvider) StopInstance(_ context.Context, id string) error {
	f.calls = append(f.calls, "stop "+id)
	if err := f.stopErr[id]; err != nil {
		return err
	}
	f.setState(id, resource.StateStopped)
	return nil
}

func (f *fakeProvider) StartInstance(_ context.Context, id string) error {
	f.calls = append(f.calls, "start "+id)
	if err := f.startErr[id]; err != nil {
		return err
	}
	f.setState(id, resource.StateRunning)
	return nil
}

func (f *fakeProvider) RebootInstance(_ context.Context, id string) error {
	f.calls = append(f.calls, "reboot "+id)
	return f.rebootErr[id]
}

func (f *fakeProvider) WaitUntilStopped(_ context.Context, id string) error {
	f.calls = append(f.calls, "wait_stopped "+id)
	return f.waitErr[id]
}

func (f *fakeProvider) WaitUntilRunning(_ context.Context, id string) error {
	f.calls = append(f.calls, "wait_running "+id)
	return f.waitErr[id]
}

func (f *fakeProvider) CreateSnapshot(_ context.Context, req resource.SnapshotRequest) (resource.Snapshot, error) {
	f.calls = append(f.calls, "create_snapshot "+req.VolumeID)
	if err := f.snapshotErr[req.VolumeID]; err != nil {
		return resource.Snapshot{}, err
	}
	f.created = append(f.created, req)
	snap := resource.Snapshot{
		ID:       fmt.Sprintf("snap-%d", len(f.created)),
		VolumeID: req.VolumeID,
		State:    resource.SnapshotPending,
	}
	f.snapshots[req.VolumeID] = append([]resource.Snapshot{snap}, f.snapshots[req.VolumeID]...)
	return snap, nil
}

func (f *fakeProvider) setState(id, state string) {
	for i := range f.instances {
		if f.instances[i].ID == id {
			f.instances[i].State = state
		}
	}
}

// mutating returns the recorded calls that change state.
func (f *fakeProvider) mutating() []string {
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, "list_") {
			continue
		}
		out = append(out, c)
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func matchesTags(inst resource.Instance, tags map[string]string) bool {
	for k, v := range tags {
		if inst.Tags[k] != v {
			return false
		}
	}
	return true
}

func apiError(code, msg string) error {
	return &smithy.GenericAPIError{Code: code, Message: msg}
}

func instance(id, state, project string) resource.Instance {
	inst := resource.Instance{
		ID:               id,
		Type:             "t3.micro",
		AvailabilityZone: "us-east-1a",
		State:            state,
	}
	if project != "" {
		inst.Tags = map[string]string{resource.ProjectTag: project}
	}
	return inst
}

// recordingEmitter collects events.
type recordingEmitter struct {
	events []resource.Event
}

func (r *recordingEmitter) Emit(_ context.Context, event resource.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEmitter) Close() error { return nil }
