package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"iiot-site/internal/common/config"
	"iiot-site/internal/common/logger"
)

const implicitTLSPort = 465

// SMTPTransport delivers one message per connection. Each Send dials,
// optionally upgrades to TLS, authenticates, sends and quits.
type SMTPTransport struct {
	cfg            config.SMTPConfig
	connectTimeout time.Duration
	socketTimeout  time.Duration
	tlsConfig      *tls.Config
	logger         logger.Logger
}

// NewSMTPTransport builds a transport from configuration. Zero timeouts fall
// back to 10s connect and 15s socket.
func NewSMTPTransport(cfg config.SMTPConfig, log logger.Logger) *SMTPTransport {
	t := &SMTPTransport{
		cfg:            cfg,
		connectTimeout: config.GetDuration(cfg.ConnectTimeout),
		socketTimeout:  config.GetDuration(cfg.SocketTimeout),
		tlsConfig:      &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12},
		logger:         log,
	}
	if t.connectTimeout <= 0 {
		t.connectTimeout = 10 * time.Second
	}
	if t.socketTimeout <= 0 {
		t.socketTimeout = 15 * time.Second
	}
	return t
}

func (t *SMTPTransport) addr() string {
	return net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
}

// Send implements Transport.
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: context cancelled before sending: %v", ErrSendFailed, err)
	}

	raw, err := Build(msg)
	if err != nil {
		return fmt.Errorf("%w: build message: %v", ErrSendFailed, err)
	}

	client, err := t.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(msg.From); err != nil {
		return fmt.Errorf("%w: failed to set sender: %v", ErrSendFailed, err)
	}
	for _, rcpt := range msg.To {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("%w: failed to set recipient %s: %v", ErrSendFailed, rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("%w: failed to open data writer: %v", ErrSendFailed, err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("%w: failed to write message: %v", ErrSendFailed, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: failed to close data writer: %v", ErrSendFailed, err)
	}

	if err := client.Quit(); err != nil {
		// The server already accepted the message.
		t.logger.Warn("SMTP quit failed after delivery", map[string]interface{}{
			"host":  t.cfg.Host,
			"error": err,
		})
	}

	t.logger.Debug("Email delivered via SMTP", map[string]interface{}{
		"host":       t.cfg.Host,
		"recipients": len(msg.To),
		"bytes":      len(raw),
	})
	return nil
}

// Verify dials the server, negotiates TLS and authenticates without sending.
func (t *SMTPTransport) Verify(ctx context.Context) error {
	client, err := t.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Quit()
}

func (t *SMTPTransport) connect(ctx context.Context) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: t.connectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.addr())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to SMTP server: %v", ErrSendFailed, err)
	}

	deadline := time.Now().Add(t.socketTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: set deadline: %v", ErrSendFailed, err)
	}

	implicitTLS := t.cfg.Port == implicitTLSPort
	if implicitTLS {
		conn = tls.Client(conn, t.tlsConfig)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: SMTP handshake failed: %v", ErrSendFailed, err)
	}

	if !implicitTLS && t.cfg.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			client.Close()
			return nil, fmt.Errorf("%w: server does not support STARTTLS", ErrSendFailed)
		}
		if err := client.StartTLS(t.tlsConfig); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: failed to start TLS: %v", ErrSendFailed, err)
		}
	}

	if t.cfg.Username != "" && t.cfg.Password != "" {
		auth := smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)
		if err := client.Auth(auth); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: SMTP authentication failed: %v", ErrSendFailed, err)
		}
	}

	return client, nil
}
