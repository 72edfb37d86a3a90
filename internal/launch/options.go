// Package launch builds EC2 launch requests from CLI-style arguments and runs them.
package launch

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/pflag"
)

// Defaults for optional launch flags.
const (
	DefaultCount   = 1
	DefaultContext = "graph"
)

var (
	ErrMissingAMI          = errors.New("ami is required")
	ErrMissingInstanceType = errors.New("instance type is required")
	ErrInvalidCount        = errors.New("count must be a positive integer")
)

// Options holds the parsed launch arguments.
type Options struct {
	AMI              string
	InstanceType     string
	Count            int
	Context          string
	AvailabilityZone string

	// SecurityGroup is accepted for compatibility but never used when
	// building the request.
	SecurityGroup string
}

// BindFlags registers the launch flags on fs, writing into opts.
func BindFlags(fs *pflag.FlagSet, opts *Options) {
	fs.StringVar(&opts.AMI, "ami", "", "AMI id to launch")
	fs.StringVar(&opts.InstanceType, "type", "", "EC2 instance type")
	fs.IntVar(&opts.Count, "cnt", DefaultCount, "Number of instances to launch")
	fs.StringVar(&opts.Context, "ctx", DefaultContext, "Context tag recorded with each instance")
	fs.StringVar(&opts.AvailabilityZone, "az", "", "Availability zone for placement")
	fs.StringVar(&opts.SecurityGroup, "sg", "", "Security group (accepted, currently unused)")
}

// ParseArgs parses a sequence of launch tokens such as
// ["--ami", "ami-123", "--type", "c5.xlarge", "--cnt", "2"].
func ParseArgs(args []string) (Options, error) {
	var opts Options

	fs := pflag.NewFlagSet("launch", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	BindFlags(fs, &opts)

	if err := fs.Parse(args); err != nil {
		return Options{}, fmt.Errorf("parse launch args: %w", err)
	}
	if fs.NArg() > 0 {
		return Options{}, fmt.Errorf("parse launch args: unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	return opts, nil
}

// Validate checks the options can produce a request.
func (o Options) Validate() error {
	if o.AMI == "" {
		return ErrMissingAMI
	}
	if o.InstanceType == "" {
		return ErrMissingInstanceType
	}
	if o.Count < 1 || o.Count > math.MaxInt32 {
		return fmt.Errorf("%w (got %d)", ErrInvalidCount, o.Count)
	}
	return nil
}
