package aws

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMSInput(t *testing.T) {
	in := SMSInput("+15550100", "IIOT", "New hot lead")

	assert.Equal(t, "+15550100", aws.ToString(in.PhoneNumber))
	assert.Equal(t, "New hot lead", aws.ToString(in.Message))
	require.Contains(t, in.MessageAttributes, "AWS.SNS.SMS.SMSType")
	assert.Equal(t, "Transactional", aws.ToString(in.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue))
	assert.Equal(t, "IIOT", aws.ToString(in.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
}

func TestSMSInput_NoSenderID(t *testing.T) {
	in := SMSInput("+15550100", "", "x")
	assert.NotContains(t, in.MessageAttributes, "AWS.SNS.SMS.SenderID")
}

func TestLoadConfig_RequiresRegion(t *testing.T) {
	_, err := LoadConfig(context.Background(), "")
	assert.Error(t, err)
}
