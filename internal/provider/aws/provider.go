// Package aws implements the EC2 resource provider for shotty.
package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Provider wraps an authenticated EC2 client.
// It is built once per process and handed to the executor.
type Provider struct {
	region    string
	ec2Client EC2API
	tracer    trace.Tracer
	wait      WaitOptions
}

// Config holds provider configuration.
type Config struct {
	Profile string
	Region  string
	Wait    WaitOptions
}

// WaitOptions bounds the blocking state waits.
// The delays are handed to the SDK waiter, which owns the backoff.
type WaitOptions struct {
	Timeout  time.Duration
	MinDelay time.Duration
	MaxDelay time.Duration
}

// New loads the shared AWS configuration for the given profile and region
// and creates the EC2 client. No API call is made.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if awsCfg.Region == "" {
		return nil, fmt.Errorf("no region configured for profile %q", cfg.Profile)
	}

	log.Debug().
		Str("profile", cfg.Profile).
		Str("region", awsCfg.Region).
		Msg("aws session ready")

	return NewWithClient(awsCfg.Region, ec2.NewFromConfig(awsCfg), cfg.Wait), nil
}

// NewWithClient builds a provider around an existing client.
func NewWithClient(region string, client EC2API, wait WaitOptions) *Provider {
	return &Provider{
		region:    region,
		ec2Client: client,
		tracer:    otel.Tracer("shotty/provider/aws"),
		wait:      wait,
	}
}

func (p *Provider) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("cloud.region", p.region))
	return p.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
