package service

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/fablab-print-api/internal/observability"
)

// Message is one outbound email.
type Message struct {
	Subject    string
	Recipients []string
	HTMLBody   string
	TextBody   string
}

// Mailer delivers emails. Send reports whether delivery was attempted and
// succeeded; failures are logged by the implementation and never returned.
type Mailer interface {
	Send(ctx context.Context, msg Message) bool
}

// SMTPConfig configures SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewMailer returns an SMTP mailer when a host is configured and a log mailer otherwise.
func NewMailer(cfg SMTPConfig, logger zerolog.Logger) Mailer {
	if strings.TrimSpace(cfg.Host) == "" {
		return NewLogMailer(logger)
	}
	return &SMTPMailer{
		cfg:    cfg,
		send:   smtp.SendMail,
		logger: logger.With().Str("component", "smtp_mailer").Logger(),
	}
}

// LogMailer records messages in the log without delivering them.
type LogMailer struct {
	logger zerolog.Logger
}

// NewLogMailer constructs a logging mailer.
func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With().Str("component", "log_mailer").Logger()}
}

// Send logs the message and reports it as not delivered.
func (m *LogMailer) Send(ctx context.Context, msg Message) bool {
	m.logger.Info().
		Str("subject", msg.Subject).
		Strs("recipients", msg.Recipients).
		Msg("email not sent: mail configuration missing")
	observability.EmailsSent().WithLabelValues("skipped").Inc()
	return false
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers multipart/alternative messages over SMTP.
type SMTPMailer struct {
	cfg    SMTPConfig
	send   sendFunc
	logger zerolog.Logger
}

// Send delivers the message, logging and swallowing any error.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) bool {
	if len(msg.Recipients) == 0 {
		return false
	}

	body, err := buildMIMEMessage(m.cfg.From, msg)
	if err != nil {
		m.logger.Error().Err(err).Str("subject", msg.Subject).Msg("failed to build email")
		observability.EmailsSent().WithLabelValues("failed").Inc()
		return false
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, msg.Recipients, body); err != nil {
		m.logger.Error().Err(err).Str("subject", msg.Subject).Msg("failed to send email")
		observability.EmailsSent().WithLabelValues("failed").Inc()
		return false
	}

	observability.EmailsSent().WithLabelValues("sent").Inc()
	return true
}

func buildMIMEMessage(from string, msg Message) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=UTF-8", msg.TextBody},
		{"text/html; charset=UTF-8", msg.HTMLBody},
	}
	for _, part := range parts {
		if part.content == "" {
			continue
		}
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", part.contentType)
		w, err := writer.CreatePart(header)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "From: %s\r\n", from)
	fmt.Fprintf(&out, "To: %s\r\n", strings.Join(msg.Recipients, ", "))
	fmt.Fprintf(&out, "Subject: %s\r\n", msg.Subject)
	out.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&out, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", writer.Boundary())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
