package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"iiot-site/internal/common/mail"
)

var mailCheckCmd = &cobra.Command{
	Use:   "mail-check",
	Short: "Verify the SMTP connection and credentials",
	Long: `mail-check dials the configured SMTP server, negotiates TLS and
authenticates without sending anything. It also reports which address each
notification purpose resolves to.`,
	RunE: runMailCheck,
}

func runMailCheck(cmd *cobra.Command, _ []string) error {
	cfg, zapLog, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer zapLog.Sync() //nolint:errcheck

	recipients := mail.RecipientsFromConfig(cfg.Mail.Recipients)
	for _, p := range []mail.Purpose{mail.PurposeQuote, mail.PurposeInternship, mail.PurposeContact} {
		addr, err := recipients.For(p)
		if err != nil {
			return err
		}
		zapLog.Info("Recipient resolved", zap.String("purpose", string(p)), zap.String("address", addr))
	}

	if cfg.Mail.Provider == "ses" {
		zapLog.Info("Mail provider is SES, skipping SMTP verification")
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	if err := mail.NewSMTPTransport(cfg.Mail.SMTP, log).Verify(ctx); err != nil {
		return fmt.Errorf("smtp verify: %w", err)
	}
	zapLog.Info("SMTP connection verified", zap.String("host", cfg.Mail.SMTP.Host), zap.Int("port", cfg.Mail.SMTP.Port))
	return nil
}
