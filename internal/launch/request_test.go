package launch

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newTestOptions() Options {
	return Options{
		AMI:          "ami-0abc",
		InstanceType: "c5.xlarge",
		Count:        1,
		Context:      "graph",
	}
}

func TestBuildRequest_Base(t *testing.T) {
	req := BuildRequest(newTestOptions(), DefaultPolicy())

	assert.Equal(t, "ami-0abc", req.ImageID)
	assert.Equal(t, "c5.xlarge", req.InstanceType)
	assert.Equal(t, []string{"sg-0a98f6952f8c78610"}, req.SecurityGroupIDs)
	assert.Equal(t, ShapeList, req.SecurityGroupShape)
	assert.Nil(t, req.Placement)
}

func TestBuildRequest_EBSOptimized(t *testing.T) {
	tests := []struct {
		instanceType string
		want         *bool
	}{
		{"t2.micro", nil},
		{"t2.small", aws.Bool(true)},
		{"t3.micro", aws.Bool(true)},
		{"r5.2xlarge", aws.Bool(true)},
	}

	for _, tt := range tests {
		t.Run(tt.instanceType, func(t *testing.T) {
			opts := newTestOptions()
			opts.InstanceType = tt.instanceType

			req := BuildRequest(opts, DefaultPolicy())
			assert.Equal(t, tt.want, req.EBSOptimized)
		})
	}
}

func TestBuildRequest_Count(t *testing.T) {
	opts := newTestOptions()
	opts.Count = 7

	req := BuildRequest(opts, DefaultPolicy())
	assert.Equal(t, int32(7), req.MinCount)
	assert.Equal(t, int32(7), req.MaxCount)
}

func TestBuildRequest_PlacementOtherRegion(t *testing.T) {
	opts := newTestOptions()
	opts.AvailabilityZone = "us-west-2b"

	req := BuildRequest(opts, DefaultPolicy())

	require.NotNil(t, req.Placement)
	assert.Equal(t, "us-west-2b", req.Placement.AvailabilityZone)
	assert.Equal(t, []string{"sg-0a98f6952f8c78610"}, req.SecurityGroupIDs)
	assert.Equal(t, ShapeList, req.SecurityGroupShape)
}

func TestBuildRequest_OverrideRegionWrapsSecurityGroups(t *testing.T) {
	opts := newTestOptions()
	opts.AvailabilityZone = "us-east-2c"

	req := BuildRequest(opts, DefaultPolicy())

	require.NotNil(t, req.Placement)
	assert.Equal(t, "us-east-2c", req.Placement.AvailabilityZone)
	assert.Equal(t, []string{"sg-098524cf5a5d0011f"}, req.SecurityGroupIDs)
	assert.Equal(t, ShapeWrapped, req.SecurityGroupShape)
}

func TestBuildRequest_RegionNameAsZone(t *testing.T) {
	// "us-east-2" loses its last character and no longer matches.
	opts := newTestOptions()
	opts.AvailabilityZone = "us-east-2"

	req := BuildRequest(opts, DefaultPolicy())

	assert.Equal(t, ShapeList, req.SecurityGroupShape)
	assert.Equal(t, []string{"sg-0a98f6952f8c78610"}, req.SecurityGroupIDs)
}

func TestBuildRequest_SecurityGroupFlagIgnored(t *testing.T) {
	opts := newTestOptions()
	opts.SecurityGroup = "sg-from-flag"

	req := BuildRequest(opts, DefaultPolicy())
	assert.NotContains(t, req.SecurityGroupIDs, "sg-from-flag")
}

func TestBuildRequest_CustomPolicy(t *testing.T) {
	policy := Policy{
		DefaultSecurityGroup:  "sg-a",
		MicroInstanceType:     "t3.nano",
		OverrideRegion:        "eu-west-1",
		OverrideSecurityGroup: "sg-b",
	}
	opts := newTestOptions()
	opts.InstanceType = "t3.nano"
	opts.AvailabilityZone = "eu-west-1a"

	req := BuildRequest(opts, policy)

	assert.Nil(t, req.EBSOptimized)
	assert.Equal(t, []string{"sg-b"}, req.SecurityGroupIDs)
	assert.Equal(t, ShapeWrapped, req.SecurityGroupShape)
}

func TestRegionOf(t *testing.T) {
	assert.Equal(t, "us-east-2", RegionOf("us-east-2a"))
	assert.Equal(t, "eu-central-1", RegionOf("eu-central-1b"))
	assert.Equal(t, "", RegionOf(""))
	assert.Equal(t, "", RegionOf("a"))
}

func TestRequestInput(t *testing.T) {
	opts := newTestOptions()
	opts.Count = 2
	opts.AvailabilityZone = "us-west-2a"

	input, err := BuildRequest(opts, DefaultPolicy()).Input()

	require.NoError(t, err)
	assert.Equal(t, "ami-0abc", aws.ToString(input.ImageId))
	assert.Equal(t, types.InstanceTypeC5Xlarge, input.InstanceType)
	assert.Equal(t, int32(2), aws.ToInt32(input.MinCount))
	assert.Equal(t, int32(2), aws.ToInt32(input.MaxCount))
	assert.Equal(t, []string{"sg-0a98f6952f8c78610"}, input.SecurityGroupIds)
	assert.True(t, aws.ToBool(input.EbsOptimized))
	require.NotNil(t, input.Placement)
	assert.Equal(t, "us-west-2a", aws.ToString(input.Placement.AvailabilityZone))
}

func TestRequestInput_MicroNoPlacement(t *testing.T) {
	opts := newTestOptions()
	opts.InstanceType = "t2.micro"

	input, err := BuildRequest(opts, DefaultPolicy()).Input()

	require.NoError(t, err)
	assert.Nil(t, input.EbsOptimized)
	assert.Nil(t, input.Placement)
}

func TestRequestInput_WrappedShapeRejected(t *testing.T) {
	opts := newTestOptions()
	opts.AvailabilityZone = "us-east-2a"

	input, err := BuildRequest(opts, DefaultPolicy()).Input()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrappedSecurityGroups)
	assert.Nil(t, input)
}

func TestRequest_MarshalYAML(t *testing.T) {
	opts := newTestOptions()
	opts.AvailabilityZone = "us-east-2a"

	out, err := yaml.Marshal(BuildRequest(opts, DefaultPolicy()))
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "image_id: ami-0abc")
	assert.Contains(t, s, "security_group_shape: wrapped")
	assert.Contains(t, s, "ebs_optimized: true")
	assert.Contains(t, s, "availability_zone: us-east-2a")
}
