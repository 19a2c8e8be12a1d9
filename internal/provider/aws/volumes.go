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

// ListVolumes returns the volumes attached to the instance.
func (p *Provider) ListVolumes(ctx context.Context, instanceID string) (volumes []resource.Volume, err error) {
	ctx, span := p.startSpan(ctx, "ec2.describe_volumes", attribute.String("instance_id", instanceID))
	defer func() { endSpan(span, err) }()

	paginator := ec2.NewDescribeVolumesPaginator(p.ec2Client, &ec2.DescribeVolumesInput{
		Filters: []ec2types.Filter{{
			Name:   aws.String("attachment.instance-id"),
			Values: []string{instanceID},
		}},
	})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe volumes of %s: %w", instanceID, err)
		}
		for _, volume := range output.Volumes {
			volumes = append(volumes, convertVolume(volume, instanceID))
		}
	}

	return volumes, nil
}

func convertVolume(volume ec2types.Volume, instanceID string) resource.Volume {
	return resource.Volume{
		ID:         aws.ToString(volume.VolumeId),
		InstanceID: instanceID,
		State:      string(volume.State),
		SizeGiB:    aws.ToInt32(volume.Size),
		CreateTime: aws.ToTime(volume.CreateTime),
	}
}
