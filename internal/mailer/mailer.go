// Package mailer submits outreach email through an authenticated SMTP
// relay and classifies delivery failures.
package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/jobpipe/jobpipe/internal/config"
	"github.com/jobpipe/jobpipe/internal/dkim"
)

// DeliveryError reports a failed send. Permanent errors (hard bounces)
// mean the address is dead and must not be retried.
type DeliveryError struct {
	Permanent bool
	Message   string
}

func (e *DeliveryError) Error() string {
	return e.Message
}

// IsPermanent reports whether an error is a hard bounce
func IsPermanent(err error) bool {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Permanent
	}
	return false
}

// sendFunc matches smtp.SendMail; swapped out in tests
type sendFunc func(addr string, a sasl.Client, from string, to []string, r io.Reader) error

// Mailer sends messages through a submission relay
type Mailer struct {
	cfg    config.MailConfig
	signer *dkim.Signer
	send   sendFunc
	logger *slog.Logger
}

// New creates a mailer. DKIM signing is enabled when configured.
func New(cfg config.MailConfig, logger *slog.Logger) (*Mailer, error) {
	m := &Mailer{
		cfg:    cfg,
		send:   smtp.SendMail,
		logger: logger,
	}

	if cfg.DKIM.Enabled {
		signer, err := dkim.NewSignerFromFile(cfg.DKIM.KeyFile, cfg.DKIM.Domain, cfg.DKIM.Selector)
		if err != nil {
			return nil, fmt.Errorf("failed to set up DKIM: %w", err)
		}
		m.signer = signer
	}

	return m, nil
}

// Send builds and submits one message
func (m *Mailer) Send(msg *Message) error {
	if msg.FromAddress == "" {
		msg.FromAddress = m.cfg.FromAddress
	}
	if msg.FromName == "" {
		msg.FromName = m.cfg.FromName
	}
	if msg.AttachmentPath == "" {
		msg.AttachmentPath = m.cfg.ResumeFile
	}

	data, err := msg.Build()
	if err != nil {
		return &DeliveryError{Permanent: false, Message: err.Error()}
	}

	if m.signer != nil {
		signed, err := m.signer.Sign(data)
		if err != nil {
			m.logger.Warn("DKIM signing failed, sending unsigned", "error", err)
		} else {
			data = signed
		}
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth sasl.Client
	if m.cfg.Username != "" {
		auth = sasl.NewPlainClient("", m.cfg.Username, m.cfg.Password)
	}

	if err := m.send(addr, auth, m.cfg.FromAddress, []string{msg.To}, bytes.NewReader(data)); err != nil {
		de := classifyError(err)
		m.logger.Warn("delivery failed",
			"to", msg.To,
			"permanent", de.Permanent,
			"error", de.Message,
		)
		return de
	}

	m.logger.Info("message delivered", "to", msg.To, "subject", msg.Subject)
	return nil
}

// smtpCodePattern matches SMTP reply codes at word boundaries
var smtpCodePattern = regexp.MustCompile(`\b(4\d{2}|5\d{2})\b`)

// classifyError maps an SMTP failure onto permanent/temporary.
// 5xx replies are hard bounces; everything else is retryable.
func classifyError(err error) *DeliveryError {
	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) {
		return &DeliveryError{
			Permanent: smtpErr.Code >= 500 && smtpErr.Code < 600,
			Message:   fmt.Sprintf("SMTP %d: %s", smtpErr.Code, smtpErr.Message),
		}
	}

	// Fall back to scanning the message for a reply code
	text := err.Error()
	if matches := smtpCodePattern.FindStringSubmatch(text); len(matches) > 1 {
		return &DeliveryError{
			Permanent: strings.HasPrefix(matches[1], "5"),
			Message:   text,
		}
	}

	return &DeliveryError{Permanent: false, Message: text}
}
