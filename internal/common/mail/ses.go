package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"iiot-site/internal/common/logger"
)

// RawEmailSender is the slice of the SES API the transport needs.
type RawEmailSender interface {
	SendRawEmail(ctx context.Context, input *ses.SendRawEmailInput) (*ses.SendRawEmailOutput, error)
}

// SESTransport hands the MIME message built by Build to SES unchanged, so
// attachments and Reply-To survive.
type SESTransport struct {
	client RawEmailSender
	logger logger.Logger
}

func NewSESTransport(client RawEmailSender, log logger.Logger) *SESTransport {
	return &SESTransport{client: client, logger: log}
}

// Send implements Transport.
func (t *SESTransport) Send(ctx context.Context, msg *Message) error {
	raw, err := Build(msg)
	if err != nil {
		return fmt.Errorf("%w: build message: %v", ErrSendFailed, err)
	}

	out, err := t.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(msg.From),
		Destinations: msg.To,
		RawMessage:   &types.RawMessage{Data: raw},
	})
	if err != nil {
		return fmt.Errorf("%w: ses: %v", ErrSendFailed, err)
	}

	t.logger.Debug("Email delivered via SES", map[string]interface{}{
		"messageId":  aws.ToString(out.MessageId),
		"recipients": len(msg.To),
	})
	return nil
}
