package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yairfalse/ec2man/internal/config"
	"github.com/yairfalse/ec2man/internal/launch"
	"github.com/yairfalse/ec2man/internal/telemetry"
)

var version = "0.1.0"

// app carries state shared by every subcommand.
type app struct {
	configPath   string
	region       string
	profile      string
	machinesFile string
	debug        bool

	cfg       *config.Config
	newClient clientFactory
}

func newRootCommand(newClient clientFactory) *cobra.Command {
	a := &app{newClient: newClient}

	rootCmd := &cobra.Command{
		Use:   "ec2man",
		Short: "Launch EC2 instances and track them",
		Long: `ec2man - EC2 machine launcher

Launches EC2 instances from an AMI and appends every launched instance id,
together with a context tag, to a local machines file for later grouping.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd.ErrOrStderr())
		},
	}
	rootCmd.SetVersionTemplate("ec2man {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&a.region, "region", "", "AWS region (defaults to the SDK resolution chain)")
	flags.StringVar(&a.profile, "profile", "", "AWS shared config profile")
	flags.StringVar(&a.machinesFile, "machines-file", "", "Machines file path (default \"ec2man/machines\")")
	flags.BoolVar(&a.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newLaunchCommand(a))
	rootCmd.AddCommand(newMachinesCommand(a))

	return rootCmd
}

// loadConfig resolves the configuration file, applies flag overrides and
// sets up logging.
func (a *app) loadConfig(logOut io.Writer) error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if a.region != "" {
		cfg.AWS.Region = a.region
	}
	if a.profile != "" {
		cfg.AWS.Profile = a.profile
	}
	if a.machinesFile != "" {
		cfg.Launch.MachinesFile = a.machinesFile
	}

	if err := telemetry.SetupLogging(logOut, cfg.Log.Level, a.debug); err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}

	a.cfg = cfg
	return nil
}

func (a *app) policy() launch.Policy {
	return launch.Policy{
		DefaultSecurityGroup:  a.cfg.Launch.DefaultSecurityGroup,
		MicroInstanceType:     a.cfg.Launch.MicroInstanceType,
		OverrideRegion:        a.cfg.Launch.OverrideRegion,
		OverrideSecurityGroup: a.cfg.Launch.OverrideSecurityGroup,
	}
}
