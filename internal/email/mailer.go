package email

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"jobgenie/internal/metrics"
)

// Mailer renders named templates and hands them to a Sender.
type Mailer struct {
	sender    Sender
	templates map[string]*mailTemplate
	defaults  map[string]any
}

// NewMailer creates a Mailer. appName and frontendURL are available to every template.
func NewMailer(sender Sender, appName, frontendURL string) (*Mailer, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Mailer{
		sender:    sender,
		templates: templates,
		defaults: map[string]any{
			"AppName":     appName,
			"FrontendURL": frontendURL,
		},
	}, nil
}

// Send renders template name with data and sends it to to.
func (m *Mailer) Send(ctx context.Context, to, name string, data map[string]any) error {
	tmpl, ok := m.templates[name]
	if !ok {
		return fmt.Errorf("unknown email template %q", name)
	}

	merged := maps.Clone(m.defaults)
	maps.Copy(merged, data)

	subject, body, err := tmpl.render(merged)
	if err != nil {
		metrics.EmailsCounter.WithLabelValues(name, "render_error").Inc()
		return fmt.Errorf("template %s: %w", name, err)
	}

	if err := m.sender.Send(ctx, &Message{Template: name, To: to, Subject: subject, Body: body}); err != nil {
		metrics.EmailsCounter.WithLabelValues(name, "error").Inc()
		return err
	}

	metrics.EmailsCounter.WithLabelValues(name, "sent").Inc()
	slog.Info("Email sent", "template", name, "to", to)
	return nil
}
