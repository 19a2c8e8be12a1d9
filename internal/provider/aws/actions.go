package aws

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yairfalse/shotty/pkg/resource"
)

// StopInstance requests a stop. It does not wait for the transition.
func (p *Provider) StopInstance(ctx context.Context, instanceID string) (err error) {
	ctx, span := p.startSpan(ctx, "ec2.stop_instances", attribute.String("instance_id", instanceID))
	defer func() { endSpan(span, err) }()

	if _, err := p.ec2Client.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{instanceID},
	}); err != nil {
		return fmt.Errorf("stop instance %s: %w", instanceID, err)
	}
	return nil
}

// StartInstance requests a start. It does not wait for the transition.
func (p *Provider) StartInstance(ctx context.Context, instanceID string) (err error) {
	ctx, span := p.startSpan(ctx, "ec2.start_instances", attribute.String("instance_id", instanceID))
	defer func() { endSpan(span, err) }()

	if _, err := p.ec2Client.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{instanceID},
	}); err != nil {
		return fmt.Errorf("start instance %s: %w", instanceID, err)
	}
	return nil
}

// RebootInstance requests a reboot.
func (p *Provider) RebootInstance(ctx context.Context, instanceID string) (err error) {
	ctx, span := p.startSpan(ctx, "ec2.reboot_instances", attribute.String("instance_id", instanceID))
	defer func() { endSpan(span, err) }()

	if _, err := p.ec2Client.RebootInstances(ctx, &ec2.RebootInstancesInput{
		InstanceIds: []string{instanceID},
	}); err != nil {
		return fmt.Errorf("reboot instance %s: %w", instanceID, err)
	}
	return nil
}

// CreateSnapshot requests a snapshot of a volume. Completion is asynchronous;
// the returned snapshot is normally still pending.
func (p *Provider) CreateSnapshot(ctx context.Context, req resource.SnapshotRequest) (snap resource.Snapshot, err error) {
	ctx, span := p.startSpan(ctx, "ec2.create_snapshot", attribute.String("volume_id", req.VolumeID))
	defer func() { endSpan(span, err) }()

	input := &ec2.CreateSnapshotInput{
		VolumeId:    aws.String(req.VolumeID),
		Description: aws.String(req.Description),
	}
	if len(req.Tags) > 0 {
		input.TagSpecifications = []ec2types.TagSpecification{{
			ResourceType: ec2types.ResourceTypeSnapshot,
			Tags:         ec2Tags(req.Tags),
		}}
	}

	output, err := p.ec2Client.CreateSnapshot(ctx, input)
	if err != nil {
		return resource.Snapshot{}, fmt.Errorf("create snapshot of %s: %w", req.VolumeID, err)
	}

	snap = resource.Snapshot{
		ID:        aws.ToString(output.SnapshotId),
		VolumeID:  aws.ToString(output.VolumeId),
		State:     string(output.State),
		Progress:  aws.ToString(output.Progress),
		StartTime: aws.ToTime(output.StartTime),
	}
	log.Debug().
		Str("snapshot_id", snap.ID).
		Str("volume_id", req.VolumeID).
		Msg("snapshot requested")

	return snap, nil
}

func ec2Tags(tags map[string]string) []ec2types.Tag {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]ec2types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, ec2types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}
