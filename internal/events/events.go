package events

import (
	"time"

	"github.com/google/uuid"

	"jobgenie/internal/models"
)

var (
	CodeIssuedTopic        = "CodeIssuedEvent"
	ApprovalDecidedTopic   = "ApprovalDecidedEvent"
	InvitationCreatedTopic = "InvitationCreatedEvent"
)

// CodeIssued is published after a verification or password-reset code is generated.
type CodeIssued struct {
	Email   string
	Name    string
	Purpose models.CodePurpose
	Code    string
	TTL     time.Duration
}

// ApprovalDecided is published after a candidate or company changed approval status.
type ApprovalDecided struct {
	EntityType models.EntityType
	EntityID   uuid.UUID
	Action     string
	From       models.ApprovalStatus
	To         models.ApprovalStatus
	Reason     string
	ActorID    uuid.UUID
	At         time.Time
}

// InvitationCreated is published after a sub-admin invitation was stored. It carries
// the plaintext token and temporary password, which exist nowhere else.
type InvitationCreated struct {
	InvitationID uuid.UUID
	Email        string
	CompanyName  string
	InviterName  string
	Token        string
	TempPassword string
	ExpiresAt    time.Time
}
