// Package notify delivers account emails through an SMTP relay.
package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

const (
	SubjectOTP               = "PawFam - Password Reset OTP"
	SubjectTemporaryPassword = "PawFam - Your Password"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Mailer sends the two recovery emails. Calls block until the relay accepts or rejects.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
	SendTemporaryPassword(ctx context.Context, to, password, username string) error
}

// SMTPConfig holds relay settings injected at construction.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	OTPExpiry time.Duration
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer renders HTML bodies and hands them to the relay.
type SMTPMailer struct {
	cfg  SMTPConfig
	send sendFunc
}

// NewSMTPMailer builds a mailer that authenticates with PLAIN auth.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// SendOTP emails a password-reset code.
func (m *SMTPMailer) SendOTP(ctx context.Context, to, code string) error {
	body, err := render("otp.html", struct {
		Code      string
		ExpiresIn string
	}{Code: code, ExpiresIn: humanMinutes(m.cfg.OTPExpiry)})
	if err != nil {
		return err
	}
	return m.deliver(ctx, to, SubjectOTP, body)
}

// SendTemporaryPassword emails a system-issued password.
func (m *SMTPMailer) SendTemporaryPassword(ctx context.Context, to, password, username string) error {
	body, err := render("temporary_password.html", struct {
		Username string
		Password string
	}{Username: username, Password: password})
	if err != nil {
		return err
	}
	return m.deliver(ctx, to, SubjectTemporaryPassword, body)
}

func (m *SMTPMailer) deliver(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("invalid recipient %q", to)
	}
	msg := buildMessage(m.cfg.From, to, subject, body)
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := m.send(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send %q email: %w", subject, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.Bytes()
}

func render(name string, data any) (string, error) {
	var b bytes.Buffer
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return b.String(), nil
}

func humanMinutes(d time.Duration) string {
	m := int(d.Minutes())
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}

// LogMailer stands in for SMTP in development. It records that a message would
// have been sent without logging its secret contents.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer returns a mailer that only logs.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendOTP(ctx context.Context, to, _ string) error {
	m.logger.WarnContext(ctx, "smtp not configured; email suppressed", "to", to, "subject", SubjectOTP)
	return nil
}

func (m *LogMailer) SendTemporaryPassword(ctx context.Context, to, _, _ string) error {
	m.logger.WarnContext(ctx, "smtp not configured; email suppressed", "to", to, "subject", SubjectTemporaryPassword)
	return nil
}
