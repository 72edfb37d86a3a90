package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/yairfalse/ec2man/internal/config"
	"github.com/yairfalse/ec2man/internal/launch"
)

// clientFactory builds the EC2 client used by launch.
type clientFactory func(ctx context.Context, cfg config.AWSConfig) (launch.EC2API, error)

func newEC2Client(ctx context.Context, cfg config.AWSConfig) (launch.EC2API, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return ec2.NewFromConfig(awsCfg), nil
}
