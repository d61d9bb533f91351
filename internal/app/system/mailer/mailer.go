// internal/app/system/mailer/mailer.go
// Package mailer sends goal reminder and completion emails over SMTP.
package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"

	"go.uber.org/zap"
)

// Mailer sends emails via SMTP.
type Mailer struct {
	host     string
	port     int
	user     string
	pass     string
	from     string
	fromName string
	log      *zap.Logger
}

// Config holds the configuration for creating a Mailer.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// New creates a new Mailer with the given configuration.
func New(cfg Config, log *zap.Logger) *Mailer {
	return &Mailer{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		pass:     cfg.Pass,
		from:     cfg.From,
		fromName: cfg.FromName,
		log:      log,
	}
}

// Sender is implemented by *Mailer. Background jobs depend on it so tests
// can capture mail instead of sending it.
type Sender interface {
	Send(email Email) error
	FromName() string
}

// ErrNoRecipient is returned by Send when Email.To is empty.
var ErrNoRecipient = errors.New("mailer: email has no recipient")

// FromName returns the configured sender display name, used as the
// application name in templates.
func (m *Mailer) FromName() string {
	if m.fromName == "" {
		return "CodeTrackr"
	}
	return m.fromName
}

// Email represents an email to be sent.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Send delivers email over SMTP. A non-empty HTMLBody is sent as a
// multipart/alternative message alongside TextBody.
func (m *Mailer) Send(email Email) error {
	if email.To == "" {
		return ErrNoRecipient
	}

	msg, err := buildMessage(m.fromHeader(), email)
	if err != nil {
		return fmt.Errorf("build email: %w", err)
	}

	var auth smtp.Auth
	if m.user != "" && m.pass != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	if err := smtp.SendMail(addr, auth, m.from, []string{email.To}, msg); err != nil {
		m.log.Error("failed to send email",
			zap.String("to", email.To),
			zap.String("subject", email.Subject),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.log.Info("email sent",
		zap.String("to", email.To),
		zap.String("subject", email.Subject))
	return nil
}

func (m *Mailer) fromHeader() string {
	if m.fromName == "" {
		return m.from
	}
	return (&mail.Address{Name: m.fromName, Address: m.from}).String()
}

// buildMessage renders the RFC 5322 message for email.
func buildMessage(from string, email Email) ([]byte, error) {
	var buf bytes.Buffer
	writeHeader := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }

	writeHeader("From", from)
	writeHeader("To", email.To)
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", email.Subject))
	writeHeader("MIME-Version", "1.0")

	if email.HTMLBody == "" {
		writeHeader("Content-Type", "text/plain; charset=UTF-8")
		buf.WriteString("\r\n")
		buf.WriteString(email.TextBody)
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	writeHeader("Content-Type", mime.FormatMediaType("multipart/alternative", map[string]string{"boundary": mw.Boundary()}))
	buf.WriteString("\r\n")

	parts := []struct{ contentType, body string }{
		{"text/plain; charset=UTF-8", email.TextBody},
		{"text/html; charset=UTF-8", email.HTMLBody},
	}
	for _, p := range parts {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, p.body); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
