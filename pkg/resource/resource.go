// Package resource defines the EC2 resource model for shotty.
package resource

import (
	"strconv"
	"strings"
	"time"
)

// ProjectTag is the tag key instances are grouped by.
const ProjectTag = "Project"

// NoProject is printed for instances without a Project tag.
const NoProject = "<no project>"

// Instance states shotty distinguishes.
const (
	StateRunning = "running"
	StateStopped = "stopped"
)

// Snapshot states.
const (
	SnapshotPending   = "pending"
	SnapshotCompleted = "completed"
	SnapshotError     = "error"
)

// Instance is an EC2 instance as seen at query time.
type Instance struct {
	ID               string            `json:"id" yaml:"id"`
	Type             string            `json:"type" yaml:"type"`
	AvailabilityZone string            `json:"availability_zone" yaml:"availability_zone"`
	State            string            `json:"state" yaml:"state"`
	PublicDNS        string            `json:"public_dns,omitempty" yaml:"public_dns,omitempty"`
	PublicIP         string            `json:"public_ip,omitempty" yaml:"public_ip,omitempty"`
	Tags             map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Project returns the Project tag value, empty if untagged.
func (i Instance) Project() string {
	return i.Tags[ProjectTag]
}

// IsRunning reports whether the instance is in the running state.
func (i Instance) IsRunning() bool {
	return i.State == StateRunning
}

// Fields returns the report columns for the instance.
func (i Instance) Fields() []string {
	project := i.Project()
	if project == "" {
		project = NoProject
	}
	return []string{i.ID, i.Type, i.AvailabilityZone, i.State, i.PublicDNS, project}
}

// Volume is an EBS volume attached to an instance.
type Volume struct {
	ID         string    `json:"id" yaml:"id"`
	InstanceID string    `json:"instance_id" yaml:"instance_id"`
	State      string    `json:"state" yaml:"state"`
	SizeGiB    int32     `json:"size_gib" yaml:"size_gib"`
	CreateTime time.Time `json:"create_time" yaml:"create_time"`
}

// Fields returns the report columns for the volume.
func (v Volume) Fields() []string {
	return []string{v.ID, v.State, strconv.Itoa(int(v.SizeGiB)), v.CreateTime.UTC().Format("2006-01-02 15:04:05-07:00")}
}

// Snapshot is an EBS snapshot of a volume.
type Snapshot struct {
	ID        string    `json:"id" yaml:"id"`
	VolumeID  string    `json:"volume_id" yaml:"volume_id"`
	State     string    `json:"state" yaml:"state"`
	Progress  string    `json:"progress" yaml:"progress"`
	StartTime time.Time `json:"start_time" yaml:"start_time"`
}

// Fields returns the report columns for the snapshot.
func (s Snapshot) Fields() []string {
	return []string{s.ID, s.VolumeID, s.Progress, s.State, s.StartTime.Format(time.ANSIC)}
}

// IsPending reports whether the snapshot is still being taken.
func (s Snapshot) IsPending() bool {
	return s.State == SnapshotPending
}

// IsCompleted reports whether the snapshot has finished.
func (s Snapshot) IsCompleted() bool {
	return s.State == SnapshotCompleted
}

// Line joins report columns the way every list command prints them.
func Line(fields []string) string {
	return strings.Join(fields, ", ")
}

// Query is a provider-level instance filter.
// Empty InstanceIDs and Tags mean every instance in the region.
type Query struct {
	InstanceIDs []string
	Tags        map[string]string
}

// SnapshotRequest describes a snapshot to create.
type SnapshotRequest struct {
	VolumeID    string
	Description string
	Tags        map[string]string
}
