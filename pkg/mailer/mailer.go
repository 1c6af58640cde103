package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Mailer delivers messages out-of-band. Delivery failures never affect
// issuance semantics; callers dispatch sends as detached work.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through a plain SMTP relay
type SMTPMailer struct {
	addr string
	from string
	log  *zap.Logger
}

// NewSMTP creates a mailer backed by the relay at host:port
func NewSMTP(host, port, from string, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%s", host, port),
		from: from,
		log:  log,
	}
}

// Send delivers a single plain-text message
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := buildMessage(m.from, to, subject, body)

	start := time.Now()
	err := smtp.SendMail(m.addr, nil, m.from, []string{to}, msg)
	dur := time.Since(start)
	if err != nil {
		m.log.Info("smtp_send",
			zap.Duration("duration", dur),
			zap.Error(err))
		return fmt.Errorf("failed to send mail: %w", err)
	}
	m.log.Debug("smtp_send", zap.Duration("duration", dur))
	return nil
}

// LogMailer logs instead of sending; used when SMTP is unconfigured
// (local development and tests). Message bodies contain one-time codes,
// so only metadata is logged outside development.
type LogMailer struct {
	log         *zap.Logger
	development bool
}

// NewLog creates a log-only mailer
func NewLog(log *zap.Logger, development bool) *LogMailer {
	return &LogMailer{log: log, development: development}
}

// Send logs the message instead of delivering it
func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.development {
		m.log.Info("mail_send_skipped",
			zap.String("subject", subject),
			zap.String("body", body))
	} else {
		m.log.Info("mail_send_skipped",
			zap.String("subject", subject))
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
