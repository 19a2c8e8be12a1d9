package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultWaitTimeout  = 10 * time.Minute
	defaultWaitMinDelay = 15 * time.Second
	defaultWaitMaxDelay = 2 * time.Minute
)

// ErrWaitTimeout is matched by every WaitTimeoutError.
var ErrWaitTimeout = errors.New("timed out waiting for instance state")

// WaitTimeoutError is returned when an instance does not reach the
// desired state within the configured timeout.
type WaitTimeoutError struct {
	InstanceID string
	State      string
	Timeout    time.Duration
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s to be %s", e.Timeout, e.InstanceID, e.State)
}

// Is lets errors.Is(err, ErrWaitTimeout) match.
func (e *WaitTimeoutError) Is(target error) bool {
	return target == ErrWaitTimeout
}

// WaitUntilStopped blocks until the instance reports stopped.
func (p *Provider) WaitUntilStopped(ctx context.Context, instanceID string) (err error) {
	ctx, span := p.startSpan(ctx, "ec2.wait_instance_stopped", attribute.String("instance_id", instanceID))
	defer func() { endSpan(span, err) }()

	opts := p.waitOptions()
	waiter := ec2.NewInstanceStoppedWaiter(p.ec2Client, func(o *ec2.InstanceStoppedWaiterOptions) {
		o.MinDelay = opts.MinDelay
		o.MaxDelay = opts.MaxDelay
	})

	log.Debug().Ctx(ctx).Str("instance_id", instanceID).Dur("timeout", opts.Timeout).Msg("waiting for instance to stop")
	err = waiter.Wait(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{instanceID}}, opts.Timeout)
	return classifyWaitError(err, instanceID, "stopped", opts.Timeout)
}

// WaitUntilRunning blocks until the instance reports running.
func (p *Provider) WaitUntilRunning(ctx context.Context, instanceID string) (err error) {
	ctx, span := p.startSpan(ctx, "ec2.wait_instance_running", attribute.String("instance_id", instanceID))
	defer func() { endSpan(span, err) }()

	opts := p.waitOptions()
	waiter := ec2.NewInstanceRunningWaiter(p.ec2Client, func(o *ec2.InstanceRunningWaiterOptions) {
		o.MinDelay = opts.MinDelay
		o.MaxDelay = opts.MaxDelay
	})

	log.Debug().Ctx(ctx).Str("instance_id", instanceID).Dur("timeout", opts.Timeout).Msg("waiting for instance to run")
	err = waiter.Wait(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{instanceID}}, opts.Timeout)
	return classifyWaitError(err, instanceID, "running", opts.Timeout)
}

func (p *Provider) waitOptions() WaitOptions {
	opts := p.wait
	if opts.Timeout <= 0 {
		opts.Timeout = defaultWaitTimeout
	}
	if opts.MinDelay <= 0 {
		opts.MinDelay = defaultWaitMinDelay
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = defaultWaitMaxDelay
		if opts.MaxDelay < opts.MinDelay {
			opts.MaxDelay = opts.MinDelay
		}
	}
	return opts
}

// classifyWaitError maps the SDK waiter's untyped timeout into WaitTimeoutError.
// The generated waiters report an exhausted budget only through the message.
func classifyWaitError(err error, instanceID, state string, timeout time.Duration) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "exceeded max wait time") {
		return &WaitTimeoutError{InstanceID: instanceID, State: state, Timeout: timeout}
	}
	return fmt.Errorf("wait for %s to be %s: %w", instanceID, state, err)
}
