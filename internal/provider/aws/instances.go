package aws

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yairfalse/shotty/pkg/resource"
)

// ListInstances returns the instances matching q, in provider order.
func (p *Provider) ListInstances(ctx context.Context, q resource.Query) (instances []resource.Instance, err error) {
	ctx, span := p.startSpan(ctx, "ec2.describe_instances",
		attribute.StringSlice("instance_ids", q.InstanceIDs))
	defer func() { endSpan(span, err) }()

	input := &ec2.DescribeInstancesInput{
		InstanceIds: q.InstanceIDs,
		Filters:     tagFilters(q.Tags),
	}

	for {
		output, err := p.ec2Client.DescribeInstances(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("describe instances: %w", err)
		}

		for _, reservation := range output.Reservations {
			for _, instance := range reservation.Instances {
				instances = append(instances, convertInstance(instance))
			}
		}

		if output.NextToken == nil {
			break
		}
		input.NextToken = output.NextToken
	}

	span.SetAttributes(attribute.Int("instance_count", len(instances)))
	return instances, nil
}

func tagFilters(tags map[string]string) []ec2types.Filter {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	filters := make([]ec2types.Filter, 0, len(keys))
	for _, k := range keys {
		filters = append(filters, ec2types.Filter{
			Name:   aws.String("tag:" + k),
			Values: []string{tags[k]},
		})
	}
	return filters
}

func convertInstance(instance ec2types.Instance) resource.Instance {
	r := resource.Instance{
		ID:        aws.ToString(instance.InstanceId),
		Type:      string(instance.InstanceType),
		PublicDNS: aws.ToString(instance.PublicDnsName),
		PublicIP:  aws.ToString(instance.PublicIpAddress),
		Tags:      make(map[string]string, len(instance.Tags)),
	}
	if instance.State != nil {
		r.State = string(instance.State.Name)
	}
	if instance.Placement != nil {
		r.AvailabilityZone = aws.ToString(instance.Placement.AvailabilityZone)
	}
	for _, tag := range instance.Tags {
		r.Tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return r
}
