package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"sort"
	"strings"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Message represents an email to send.
type Message struct {
	// Template names the mail template the message was rendered from.
	Template    string
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Attachment represents an email attachment.
type Attachment struct {
	Filename string
	Content  []byte
	MimeType string
}

// SMTPConfig holds SMTP configuration.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPSender sends mail through an SMTP relay.
type SMTPSender struct {
	smtp     *SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates a new SMTP sender.
func NewSMTPSender(cfg *SMTPConfig) *SMTPSender {
	return &SMTPSender{smtp: cfg, sendMail: smtp.SendMail}
}

// Send sends an email using SMTP.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	if s.smtp == nil || s.smtp.Host == "" {
		return fmt.Errorf("SMTP not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	slog.Debug("Sending email via SMTP", "to", msg.To, "subject", msg.Subject)

	fullMessage, err := s.build(msg)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if s.smtp.Username != "" {
		auth = smtp.PlainAuth("", s.smtp.Username, s.smtp.Password, s.smtp.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.smtp.Host, s.smtp.Port)

	if err := s.sendMail(addr, auth, s.smtp.From, []string{msg.To}, fullMessage); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *SMTPSender) build(msg *Message) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fromHeader := s.smtp.From
	if s.smtp.FromName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.smtp.FromName), s.smtp.From)
	}

	headers := map[string]string{
		"From":         fromHeader,
		"To":           msg.To,
		"Subject":      mime.QEncoding.Encode("utf-8", msg.Subject),
		"MIME-Version": "1.0",
		"Content-Type": fmt.Sprintf("multipart/mixed; boundary=%s", writer.Boundary()),
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var headerBuf bytes.Buffer
	for _, k := range keys {
		headerBuf.WriteString(fmt.Sprintf("%s: %s\r\n", k, headers[k]))
	}
	headerBuf.WriteString("\r\n")

	bodyPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create body part: %w", err)
	}
	bodyPart.Write([]byte(strings.ReplaceAll(msg.Body, "\n", "\r\n")))

	for _, att := range msg.Attachments {
		attPart, err := writer.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {att.MimeType},
			"Content-Disposition":       {fmt.Sprintf(`attachment; filename="%s"`, att.Filename)},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment part: %w", err)
		}
		encoded := base64.StdEncoding.EncodeToString(att.Content)
		// Wrap at 76 characters
		for i := 0; i < len(encoded); i += 76 {
			end := min(i+76, len(encoded))
			attPart.Write([]byte(encoded[i:end] + "\r\n"))
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish message: %w", err)
	}
	return append(headerBuf.Bytes(), buf.Bytes()...), nil
}

// LogSender records that a message would have been sent. It is used when no
// SMTP relay is configured. Bodies carry codes and temporary passwords, so
// only the recipient and template are logged.
type LogSender struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Send logs msg.
func (s LogSender) Send(_ context.Context, msg *Message) error {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("Email (SMTP disabled)", "to", msg.To, "template", msg.Template)
	return nil
}
