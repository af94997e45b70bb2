package mail

import (
	"context"
	"fmt"

	awsclient "iiot-site/internal/common/aws"
	"iiot-site/internal/common/config"
	"iiot-site/internal/common/logger"
)

// NewTransport selects the configured provider.
func NewTransport(ctx context.Context, cfg *config.Config, log logger.Logger) (Transport, error) {
	switch cfg.Mail.Provider {
	case "", "smtp":
		return NewSMTPTransport(cfg.Mail.SMTP, log), nil
	case "ses":
		client, err := awsclient.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("create ses client: %w", err)
		}
		return NewSESTransport(client, log), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Mail.Provider)
	}
}

// RecipientsFromConfig maps the configured staff addresses.
func RecipientsFromConfig(cfg config.RecipientsConfig) Recipients {
	return Recipients{
		Contact:    cfg.Contact,
		Quote:      cfg.Quote,
		Internship: cfg.Internship,
	}
}
