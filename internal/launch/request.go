package launch

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// ErrWrappedSecurityGroups is returned when a request carries the wrapped
// security group shape, which the EC2 API cannot accept.
var ErrWrappedSecurityGroups = errors.New("security group ids wrapped in an extra sequence")

// SecurityGroupShape describes how the security group ids are nested.
type SecurityGroupShape int

const (
	// ShapeList is a flat list of ids.
	ShapeList SecurityGroupShape = iota
	// ShapeWrapped is a single-element sequence holding the id list. The
	// regional override produces this shape; it is kept as-is and rejected
	// when converting to an API input.
	ShapeWrapped
)

func (s SecurityGroupShape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeWrapped:
		return "wrapped"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// MarshalYAML renders the shape by name.
func (s SecurityGroupShape) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// Policy holds the literals driving the two conditional request rules.
type Policy struct {
	// DefaultSecurityGroup is attached to every request.
	DefaultSecurityGroup string
	// MicroInstanceType is the only type launched without EBS optimization.
	MicroInstanceType string
	// OverrideRegion selects zones whose security group is replaced.
	OverrideRegion string
	// OverrideSecurityGroup replaces the default in OverrideRegion.
	OverrideSecurityGroup string
}

// DefaultPolicy returns the built-in launch policy.
func DefaultPolicy() Policy {
	return Policy{
		DefaultSecurityGroup:  "sg-0a98f6952f8c78610",
		MicroInstanceType:     "t2.micro",
		OverrideRegion:        "us-east-2",
		OverrideSecurityGroup: "sg-098524cf5a5d0011f",
	}
}

// Placement pins instances to an availability zone.
type Placement struct {
	AvailabilityZone string `yaml:"availability_zone"`
}

// Request is the provider-neutral form of a RunInstances call.
type Request struct {
	ImageID            string             `yaml:"image_id"`
	InstanceType       string             `yaml:"instance_type"`
	MinCount           int32              `yaml:"min_count"`
	MaxCount           int32              `yaml:"max_count"`
	SecurityGroupIDs   []string           `yaml:"security_group_ids"`
	SecurityGroupShape SecurityGroupShape `yaml:"security_group_shape"`
	EBSOptimized       *bool              `yaml:"ebs_optimized,omitempty"`
	Placement          *Placement         `yaml:"placement,omitempty"`
}

// RegionOf returns the region an availability zone belongs to, which is the
// zone name without its trailing letter.
func RegionOf(az string) string {
	if az == "" {
		return ""
	}
	return az[:len(az)-1]
}

// BuildRequest maps options to a request. Options are assumed valid.
func BuildRequest(opts Options, policy Policy) Request {
	req := Request{
		ImageID:          opts.AMI,
		InstanceType:     opts.InstanceType,
		MinCount:         int32(opts.Count), // #nosec G115 -- bounded by Validate
		MaxCount:         int32(opts.Count), // #nosec G115 -- bounded by Validate
		SecurityGroupIDs: []string{policy.DefaultSecurityGroup},
	}

	if opts.InstanceType != policy.MicroInstanceType {
		req.EBSOptimized = aws.Bool(true)
	}

	if opts.AvailabilityZone != "" {
		req.Placement = &Placement{AvailabilityZone: opts.AvailabilityZone}
		if RegionOf(opts.AvailabilityZone) == policy.OverrideRegion {
			req.SecurityGroupIDs = []string{policy.OverrideSecurityGroup}
			req.SecurityGroupShape = ShapeWrapped
		}
	}

	return req
}

// Input converts the request to an EC2 RunInstances input.
func (r Request) Input() (*ec2.RunInstancesInput, error) {
	if r.SecurityGroupShape != ShapeList {
		return nil, fmt.Errorf("%w: %v", ErrWrappedSecurityGroups, r.SecurityGroupIDs)
	}

	input := &ec2.RunInstancesInput{
		ImageId:          aws.String(r.ImageID),
		InstanceType:     types.InstanceType(r.InstanceType),
		MinCount:         aws.Int32(r.MinCount),
		MaxCount:         aws.Int32(r.MaxCount),
		SecurityGroupIds: r.SecurityGroupIDs,
		EbsOptimized:     r.EBSOptimized,
	}
	if r.Placement != nil {
		input.Placement = &types.Placement{
			AvailabilityZone: aws.String(r.Placement.AvailabilityZone),
		}
	}

	return input, nil
}
