package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"

	"jobgenie/internal/events"
	"jobgenie/internal/metrics"
	"jobgenie/internal/models"
	"jobgenie/internal/store"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrForbidden        = errors.New("only MIS users can review")
	ErrNotSubmitted     = errors.New("profile has not been submitted")
	ErrAlreadySubmitted = errors.New("already awaiting review")
	ErrStaleStatus      = errors.New("status changed since it was read; reload and retry")
)

// Store is the persistence the approval service needs.
type Store interface {
	GetCandidateByID(ctx context.Context, id uuid.UUID) (*models.Candidate, error)
	GetCompanyByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	GetCandidateProfile(ctx context.Context, candidate *models.Candidate) (*models.CandidateProfile, error)
	ApplyStatusChange(ctx context.Context, change *models.StatusChange) (*models.ApprovalEvent, error)
	ListApprovalEvents(ctx context.Context, entityType models.EntityType, entityID uuid.UUID) ([]models.ApprovalEvent, error)
	ListCandidates(ctx context.Context, status *models.ApprovalStatus, page, pageSize int) ([]models.CandidateListItem, int, error)
	ListCompanies(ctx context.Context, status *models.ApprovalStatus, page, pageSize int) ([]models.Company, int, error)
	GetApprovalStats(ctx context.Context) (*models.ApprovalStats, error)
}

// Actor is the authenticated user performing an action.
type Actor struct {
	UserID uuid.UUID
	Role   models.Role
}

// Service runs the candidate and company approval workflow.
type Service struct {
	store Store
	bus   EventBus.Bus
	now   func() time.Time
}

// NewService creates an approval service.
func NewService(store Store, bus EventBus.Bus) *Service {
	return &Service{store: store, bus: bus, now: time.Now}
}

// ReviewCandidate applies an MIS decision to a submitted candidate profile.
func (s *Service) ReviewCandidate(ctx context.Context, actor Actor, candidateID uuid.UUID, action Action, reason string) (*models.Candidate, error) {
	if actor.Role != models.RoleMIS {
		return nil, ErrForbidden
	}
	if action == ActionSubmit {
		return nil, fmt.Errorf("%w: submit is not a review action", ErrInvalidTransition)
	}

	candidate, err := s.store.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, ErrNotFound
	}
	if !candidate.IsSubmitted() {
		return nil, ErrNotSubmitted
	}

	if err := s.transition(ctx, models.EntityCandidate, candidate.ID, candidate.ApprovalStatus, action, reason, actor.UserID, false); err != nil {
		return nil, err
	}
	return s.store.GetCandidateByID(ctx, candidateID)
}

// ReviewCompany applies an MIS decision to a company.
func (s *Service) ReviewCompany(ctx context.Context, actor Actor, companyID uuid.UUID, action Action, reason string) (*models.Company, error) {
	if actor.Role != models.RoleMIS {
		return nil, ErrForbidden
	}
	if action == ActionSubmit {
		return nil, fmt.Errorf("%w: submit is not a review action", ErrInvalidTransition)
	}

	company, err := s.store.GetCompanyByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrNotFound
	}

	if err := s.transition(ctx, models.EntityCompany, company.ID, company.ApprovalStatus, action, reason, actor.UserID, false); err != nil {
		return nil, err
	}
	return s.store.GetCompanyByID(ctx, companyID)
}

// SubmitCandidate puts a candidate profile in the review queue. A profile that is
// already submitted and pending cannot be submitted again.
func (s *Service) SubmitCandidate(ctx context.Context, userID uuid.UUID, candidate *models.Candidate) error {
	if candidate.IsSubmitted() && candidate.ApprovalStatus == models.ApprovalPending {
		return ErrAlreadySubmitted
	}
	return s.transition(ctx, models.EntityCandidate, candidate.ID, candidate.ApprovalStatus, ActionSubmit, "", userID, true)
}

// ResubmitCompany puts a rejected company back in the review queue.
func (s *Service) ResubmitCompany(ctx context.Context, userID uuid.UUID, company *models.Company) error {
	if company.ApprovalStatus == models.ApprovalPending {
		return ErrAlreadySubmitted
	}
	return s.transition(ctx, models.EntityCompany, company.ID, company.ApprovalStatus, ActionSubmit, "", userID, false)
}

func (s *Service) transition(ctx context.Context, entity models.EntityType, id uuid.UUID, from models.ApprovalStatus,
	action Action, reason string, actorID uuid.UUID, markSubmitted bool) error {
	to, err := Next(from, action)
	if err != nil {
		return err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" && RequiresReason(from, action) {
		return ErrReasonRequired
	}

	change := &models.StatusChange{
		EntityType:    entity,
		EntityID:      id,
		Action:        string(action),
		From:          from,
		To:            to,
		ActorID:       &actorID,
		At:            s.now().UTC(),
		Review:        action != ActionSubmit,
		MarkSubmitted: markSubmitted,
	}
	if reason != "" {
		change.Reason = &reason
	}

	event, err := s.store.ApplyStatusChange(ctx, change)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrStaleStatus
		}
		return fmt.Errorf("failed to apply status change: %w", err)
	}

	metrics.ApprovalDecisionsCounter.WithLabelValues(string(entity), string(action)).Inc()
	slog.Info("Approval status changed",
		"entity", entity,
		"id", id,
		"action", action,
		"from", from,
		"to", to,
		"actor", actorID,
	)

	if action != ActionSubmit && s.bus != nil {
		s.bus.Publish(events.ApprovalDecidedTopic, events.ApprovalDecided{
			EntityType: entity,
			EntityID:   id,
			Action:     string(action),
			From:       from,
			To:         to,
			Reason:     reason,
			ActorID:    actorID,
			At:         event.CreatedAt,
		})
	}
	return nil
}

// History returns the recorded transitions of a candidate or company.
func (s *Service) History(ctx context.Context, entity models.EntityType, id uuid.UUID) ([]models.ApprovalEvent, error) {
	if !entity.Valid() {
		return nil, fmt.Errorf("unknown entity type %q", entity)
	}
	return s.store.ListApprovalEvents(ctx, entity, id)
}

// ListCandidates lists submitted candidates for review.
func (s *Service) ListCandidates(ctx context.Context, status *models.ApprovalStatus, page, pageSize int) (*models.Page[models.CandidateListItem], error) {
	items, total, err := s.store.ListCandidates(ctx, status, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.CandidateListItem]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// ListCompanies lists companies for review.
func (s *Service) ListCompanies(ctx context.Context, status *models.ApprovalStatus, page, pageSize int) (*models.Page[models.Company], error) {
	items, total, err := s.store.ListCompanies(ctx, status, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.Company]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// CandidateProfile returns the full profile of a candidate for review.
func (s *Service) CandidateProfile(ctx context.Context, candidateID uuid.UUID) (*models.CandidateProfile, error) {
	candidate, err := s.Candidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	return s.store.GetCandidateProfile(ctx, candidate)
}

// Candidate returns a candidate by ID.
func (s *Service) Candidate(ctx context.Context, candidateID uuid.UUID) (*models.Candidate, error) {
	candidate, err := s.store.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, ErrNotFound
	}
	return candidate, nil
}

// Company returns a company by ID.
func (s *Service) Company(ctx context.Context, companyID uuid.UUID) (*models.Company, error) {
	company, err := s.store.GetCompanyByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrNotFound
	}
	return company, nil
}

// Stats returns review queue counts.
func (s *Service) Stats(ctx context.Context) (*models.ApprovalStats, error) {
	return s.store.GetApprovalStats(ctx)
}
