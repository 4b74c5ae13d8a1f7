package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"

	"jobgenie/internal/email"
	"jobgenie/internal/events"
	"jobgenie/internal/models"
)

// Mailer sends a named email template.
type Mailer interface {
	Send(ctx context.Context, to, name string, data map[string]any) error
}

// Directory resolves the recipients of notifications.
type Directory interface {
	GetCandidateByID(ctx context.Context, id uuid.UUID) (*models.Candidate, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetCompanyByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	ListSuperAdminEmails(ctx context.Context, companyID uuid.UUID) ([]string, error)
}

// Notifier turns domain events into emails. Delivery is best effort: failures
// are logged and counted, never reported to the publisher.
type Notifier struct {
	mailer      Mailer
	directory   Directory
	frontendURL string
	timeout     time.Duration
	log         *slog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(mailer Mailer, directory Directory, frontendURL string) *Notifier {
	return &Notifier{
		mailer:      mailer,
		directory:   directory,
		frontendURL: frontendURL,
		timeout:     30 * time.Second,
		log:         slog.Default().With("component", "notifier"),
	}
}

// Subscribe registers asynchronous handlers on bus.
func (n *Notifier) Subscribe(bus EventBus.Bus) error {
	if err := bus.SubscribeAsync(events.CodeIssuedTopic, n.onCodeIssued, false); err != nil {
		return err
	}
	if err := bus.SubscribeAsync(events.ApprovalDecidedTopic, n.onApprovalDecided, false); err != nil {
		return err
	}
	return bus.SubscribeAsync(events.InvitationCreatedTopic, n.onInvitationCreated, false)
}

func (n *Notifier) newContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), n.timeout)
}

func (n *Notifier) onCodeIssued(e events.CodeIssued) {
	ctx, cancel := n.newContext()
	defer cancel()

	name := email.TemplateVerificationCode
	if e.Purpose == models.PurposePasswordReset {
		name = email.TemplatePasswordReset
	}
	n.send(ctx, e.Email, name, map[string]any{
		"Name":             displayName(e.Name),
		"Code":             e.Code,
		"ExpiresInMinutes": int(e.TTL.Minutes()),
	})
}

func (n *Notifier) onInvitationCreated(e events.InvitationCreated) {
	ctx, cancel := n.newContext()
	defer cancel()

	acceptURL := fmt.Sprintf("%s/invitations/accept?token=%s", n.frontendURL, url.QueryEscape(e.Token))
	n.send(ctx, e.Email, email.TemplateInvitation, map[string]any{
		"CompanyName":  e.CompanyName,
		"InviterName":  e.InviterName,
		"AcceptURL":    acceptURL,
		"TempPassword": e.TempPassword,
		"ExpiresAt":    e.ExpiresAt.UTC().Format("2 Jan 2006 15:04 MST"),
	})
}

func (n *Notifier) onApprovalDecided(e events.ApprovalDecided) {
	ctx, cancel := n.newContext()
	defer cancel()

	switch e.EntityType {
	case models.EntityCandidate:
		n.notifyCandidate(ctx, e)
	case models.EntityCompany:
		n.notifyCompany(ctx, e)
	}
}

func (n *Notifier) notifyCandidate(ctx context.Context, e events.ApprovalDecided) {
	name, ok := candidateTemplates[e.Action]
	if !ok {
		return
	}

	candidate, err := n.directory.GetCandidateByID(ctx, e.EntityID)
	if err != nil || candidate == nil {
		n.log.Error("Failed to load candidate for notification", "candidate_id", e.EntityID, "error", err)
		return
	}
	user, err := n.directory.GetUserByID(ctx, candidate.UserID)
	if err != nil || user == nil {
		n.log.Error("Failed to load user for notification", "user_id", candidate.UserID, "error", err)
		return
	}

	n.send(ctx, user.Email, name, map[string]any{
		"Name":   displayName(candidate.FirstName),
		"Reason": e.Reason,
	})
}

func (n *Notifier) notifyCompany(ctx context.Context, e events.ApprovalDecided) {
	name, ok := companyTemplates[e.Action]
	if !ok {
		return
	}

	company, err := n.directory.GetCompanyByID(ctx, e.EntityID)
	if err != nil || company == nil {
		n.log.Error("Failed to load company for notification", "company_id", e.EntityID, "error", err)
		return
	}
	recipients, err := n.directory.ListSuperAdminEmails(ctx, company.ID)
	if err != nil {
		n.log.Error("Failed to load company admins for notification", "company_id", company.ID, "error", err)
		return
	}

	for _, to := range recipients {
		n.send(ctx, to, name, map[string]any{
			"CompanyName": company.Name,
			"Reason":      e.Reason,
		})
	}
}

func (n *Notifier) send(ctx context.Context, to, name string, data map[string]any) {
	if err := n.mailer.Send(ctx, to, name, data); err != nil {
		n.log.Error("Failed to send notification", "template", name, "to", to, "error", err)
	}
}

var candidateTemplates = map[string]string{
	"approve": email.TemplateCandidateApproved,
	"reject":  email.TemplateCandidateRejected,
	"revoke":  email.TemplateCandidateRevoked,
}

var companyTemplates = map[string]string{
	"approve": email.TemplateCompanyApproved,
	"reject":  email.TemplateCompanyRejected,
	"revoke":  email.TemplateCompanyRevoked,
}

func displayName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
