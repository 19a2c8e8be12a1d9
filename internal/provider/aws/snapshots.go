package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yairfalse/shotty/pkg/resource"
)

// ListSnapshots returns the account's snapshots of a volume in the order
// the provider returns them. That order is not guaranteed to be chronological.
func (p *Provider) ListSnapshots(ctx context.Context, volumeID string) (snapshots []resource.Snapshot, err error) {
	ctx, span := p.startSpan(ctx, "ec2.describe_snapshots", attribute.String("volume_id", volumeID))
	defer func() { endSpan(span, err) }()

	paginator := ec2.NewDescribeSnapshotsPaginator(p.ec2Client, &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
		Filters: []ec2types.Filter{{
			Name:   aws.String("volume-id"),
			Values: []string{volumeID},
		}},
	})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe snapshots of %s: %w", volumeID, err)
		}
		for _, snapshot := range output.Snapshots {
			snapshots = append(snapshots, convertSnapshot(snapshot))
		}
	}

	return snapshots, nil
}

func convertSnapshot(snapshot ec2types.Snapshot) resource.Snapshot {
	return resource.Snapshot{
		ID:        aws.ToString(snapshot.SnapshotId),
		VolumeID:  aws.ToString(snapshot.VolumeId),
		State:     string(snapshot.State),
		Progress:  aws.ToString(snapshot.Progress),
		StartTime: aws.ToTime(snapshot.StartTime),
	}
}
