package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yairfalse/ec2man/internal/launch"
	"github.com/yairfalse/ec2man/internal/telemetry"
)

func newLaunchCommand(a *app) *cobra.Command {
	var (
		opts   launch.Options
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Launch EC2 instances and record them",
		Long: `Launch instances from an AMI and append "<instance-id> <context>" lines,
preceded by a blank line, to the machines file.

Every instance type except t2.micro is launched EBS optimized. Zones in
us-east-2 get a region specific security group.`,
		Example: `  ec2man launch --ami ami-0abc --type c5.xlarge --cnt 4
  ec2man launch --ami ami-0abc --type t2.micro --ctx weight --az us-west-2a
  ec2man launch --ami ami-0abc --type r5.large --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLaunch(cmd, opts, dryRun)
		},
	}

	launch.BindFlags(cmd.Flags(), &opts)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the request without launching")

	return cmd
}

func (a *app) runLaunch(cmd *cobra.Command, opts launch.Options, dryRun bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	log.Debug().
		Str("ami", opts.AMI).
		Str("type", opts.InstanceType).
		Int("cnt", opts.Count).
		Str("ctx", opts.Context).
		Str("az", opts.AvailabilityZone).
		Str("sg", opts.SecurityGroup).
		Msg("input args")

	if dryRun {
		req, err := launch.New(nil, a.cfg.Launch.MachinesFile, launch.WithPolicy(a.policy())).Plan(opts)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(req)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		_, err = out.Write(data)
		return err
	}

	tp, err := telemetry.NewProvider(ctx, a.cfg.OTEL)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	client, err := a.newClient(ctx, a.cfg.AWS)
	if err != nil {
		return err
	}

	l := launch.New(client, a.cfg.Launch.MachinesFile,
		launch.WithPolicy(a.policy()),
		launch.WithMetrics(tp),
		launch.WithLogger(log.Logger),
	)

	result, err := l.Launch(ctx, opts)
	if err != nil {
		return err
	}

	for _, id := range result.InstanceIDs {
		fmt.Fprintln(out, id)
	}
	return nil
}
