package launch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yairfalse/ec2man/internal/machines"
)

// EC2API defines the EC2 operations used by the launcher.
type EC2API interface {
	RunInstances(ctx context.Context, params *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
}

// Metrics receives launch outcomes.
type Metrics interface {
	RecordLaunch(ctx context.Context, instanceType string, count int, d time.Duration)
	RecordError(ctx context.Context, instanceType, stage string)
}

type noopMetrics struct{}

func (noopMetrics) RecordLaunch(context.Context, string, int, time.Duration) {}
func (noopMetrics) RecordError(context.Context, string, string)              {}

// Result describes a completed launch.
type Result struct {
	InstanceIDs []string
	Context     string
	Request     Request
}

// Launcher runs launch requests and records the launched instances.
type Launcher struct {
	client       EC2API
	machinesPath string
	policy       Policy
	metrics      Metrics
	tracer       trace.Tracer
	logger       zerolog.Logger
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithPolicy replaces the default launch policy.
func WithPolicy(p Policy) Option {
	return func(l *Launcher) { l.policy = p }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(l *Launcher) { l.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Launcher) { l.logger = logger }
}

// New creates a launcher that appends to the machines file at machinesPath.
func New(client EC2API, machinesPath string, opts ...Option) *Launcher {
	l := &Launcher{
		client:       client,
		machinesPath: machinesPath,
		policy:       DefaultPolicy(),
		metrics:      noopMetrics{},
		tracer:       otel.Tracer("github.com/yairfalse/ec2man/internal/launch"),
		logger:       log.Logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Plan validates the options and returns the request Launch would send.
func (l *Launcher) Plan(opts Options) (Request, error) {
	if err := opts.Validate(); err != nil {
		return Request{}, err
	}
	return BuildRequest(opts, l.policy), nil
}

// Launch creates the instances described by opts and appends one record per
// instance to the machines file. Nothing is retried.
func (l *Launcher) Launch(ctx context.Context, opts Options) (*Result, error) {
	req, err := l.Plan(opts)
	if err != nil {
		return nil, err
	}

	ctx, span := l.tracer.Start(ctx, "launch.RunInstances", trace.WithAttributes(
		attribute.String("ami", req.ImageID),
		attribute.String("instance_type", req.InstanceType),
		attribute.Int("count", int(req.MaxCount)),
		attribute.String("context", opts.Context),
	))
	defer span.End()

	input, err := req.Input()
	if err != nil {
		l.fail(ctx, span, req, "build", err)
		return nil, fmt.Errorf("build request: %w", err)
	}

	l.logger.Info().
		Str("ami", req.ImageID).
		Str("instance_type", req.InstanceType).
		Int32("count", req.MaxCount).
		Strs("security_groups", req.SecurityGroupIDs).
		Str("availability_zone", opts.AvailabilityZone).
		Msg("launching instances")

	start := time.Now()
	output, err := l.client.RunInstances(ctx, input)
	if err != nil {
		l.fail(ctx, span, req, "run_instances", err)
		return nil, fmt.Errorf("run instances: %w", err)
	}

	ids := instanceIDs(output)
	l.metrics.RecordLaunch(ctx, req.InstanceType, len(ids), time.Since(start))
	span.SetAttributes(attribute.StringSlice("instance_ids", ids))

	l.logger.Info().
		Strs("instance_ids", ids).
		Str("context", opts.Context).
		Msg("instances launched")

	if err := machines.Append(l.machinesPath, ids, opts.Context); err != nil {
		l.fail(ctx, span, req, "record", err)
		return nil, fmt.Errorf("record machines: %w", err)
	}

	return &Result{InstanceIDs: ids, Context: opts.Context, Request: req}, nil
}

func (l *Launcher) fail(ctx context.Context, span trace.Span, req Request, stage string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
	l.metrics.RecordError(ctx, req.InstanceType, stage)

	event := l.logger.Error().Err(err).Str("stage", stage)
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		event = event.Str("error_code", apiErr.ErrorCode())
	}
	event.Msg("launch failed")
}

func instanceIDs(output *ec2.RunInstancesOutput) []string {
	if output == nil {
		return nil
	}
	ids := make([]string, 0, len(output.Instances))
	for _, inst := range output.Instances {
		ids = append(ids, aws.ToString(inst.InstanceId))
	}
	return ids
}
