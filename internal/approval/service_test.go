package approval

import (
	"context"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"jobgenie/internal/events"
	"jobgenie/internal/models"
	"jobgenie/internal/store"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetCandidateByID(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Candidate)
	return c, args.Error(1)
}

func (m *mockStore) GetCompanyByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Company)
	return c, args.Error(1)
}

func (m *mockStore) GetCandidateProfile(ctx context.Context, candidate *models.Candidate) (*models.CandidateProfile, error) {
	args := m.Called(ctx, candidate)
	p, _ := args.Get(0).(*models.CandidateProfile)
	return p, args.Error(1)
}

func (m *mockStore) ApplyStatusChange(ctx context.Context, change *models.StatusChange) (*models.ApprovalEvent, error) {
	args := m.Called(ctx, change)
	e, _ := args.Get(0).(*models.ApprovalEvent)
	return e, args.Error(1)
}

func (m *mockStore) ListApprovalEvents(ctx context.Context, entityType models.EntityType, entityID uuid.UUID) ([]models.ApprovalEvent, error) {
	args := m.Called(ctx, entityType, entityID)
	return args.Get(0).([]models.ApprovalEvent), args.Error(1)
}

func (m *mockStore) ListCandidates(ctx context.Context, status *models.ApprovalStatus, page, pageSize int) ([]models.CandidateListItem, int, error) {
	args := m.Called(ctx, status, page, pageSize)
	return args.Get(0).([]models.CandidateListItem), args.Int(1), args.Error(2)
}

func (m *mockStore) ListCompanies(ctx context.Context, status *models.ApprovalStatus, page, pageSize int) ([]models.Company, int, error) {
	args := m.Called(ctx, status, page, pageSize)
	return args.Get(0).([]models.Company), args.Int(1), args.Error(2)
}

func (m *mockStore) GetApprovalStats(ctx context.Context) (*models.ApprovalStats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*models.ApprovalStats)
	return s, args.Error(1)
}

var misActor = Actor{UserID: uuid.New(), Role: models.RoleMIS}

func submittedCandidate(status models.ApprovalStatus) *models.Candidate {
	now := time.Now()
	return &models.Candidate{ID: uuid.New(), UserID: uuid.New(), ApprovalStatus: status, SubmittedAt: &now}
}

func TestReviewCandidate_Approve(t *testing.T) {
	st := &mockStore{}
	bus := EventBus.New()
	svc := NewService(st, bus)

	var published []events.ApprovalDecided
	require.NoError(t, bus.Subscribe(events.ApprovalDecidedTopic, func(e events.ApprovalDecided) {
		published = append(published, e)
	}))

	c := submittedCandidate(models.ApprovalPending)
	approved := *c
	approved.ApprovalStatus = models.ApprovalApproved

	st.On("GetCandidateByID", mock.Anything, c.ID).Return(c, nil).Once()
	st.On("ApplyStatusChange", mock.Anything, mock.MatchedBy(func(ch *models.StatusChange) bool {
		return ch.EntityType == models.EntityCandidate && ch.From == models.ApprovalPending &&
			ch.To == models.ApprovalApproved && ch.Review && !ch.MarkSubmitted && *ch.ActorID == misActor.UserID
	})).Return(&models.ApprovalEvent{CreatedAt: time.Now()}, nil)
	st.On("GetCandidateByID", mock.Anything, c.ID).Return(&approved, nil).Once()

	got, err := svc.ReviewCandidate(context.Background(), misActor, c.ID, ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, got.ApprovalStatus)
	require.Len(t, published, 1)
	assert.Equal(t, "approve", published[0].Action)
	st.AssertExpectations(t)
}

func TestReviewCandidate_RejectNeedsReason(t *testing.T) {
	st := &mockStore{}
	svc := NewService(st, nil)

	c := submittedCandidate(models.ApprovalPending)
	st.On("GetCandidateByID", mock.Anything, c.ID).Return(c, nil)

	_, err := svc.ReviewCandidate(context.Background(), misActor, c.ID, ActionReject, "   ")
	assert.ErrorIs(t, err, ErrReasonRequired)
	st.AssertNotCalled(t, "ApplyStatusChange", mock.Anything, mock.Anything)
}

func TestReviewCandidate_NotSubmitted(t *testing.T) {
	st := &mockStore{}
	svc := NewService(st, nil)

	c := &models.Candidate{ID: uuid.New(), ApprovalStatus: models.ApprovalPending}
	st.On("GetCandidateByID", mock.Anything, c.ID).Return(c, nil)

	_, err := svc.ReviewCandidate(context.Background(), misActor, c.ID, ActionApprove, "")
	assert.ErrorIs(t, err, ErrNotSubmitted)
}

func TestReviewCandidate_InvalidTransition(t *testing.T) {
	st := &mockStore{}
	svc := NewService(st, nil)

	c := submittedCandidate(models.ApprovalApproved)
	st.On("GetCandidateByID", mock.Anything, c.ID).Return(c, nil)

	_, err := svc.ReviewCandidate(context.Background(), misActor, c.ID, ActionApprove, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReviewCandidate_StaleStatus(t *testing.T) {
	st := &mockStore{}
	svc := NewService(st, nil)

	c := submittedCandidate(models.ApprovalPending)
	st.On("GetCandidateByID", mock.Anything, c.ID).Return(c, nil)
	st.On("ApplyStatusChange", mock.Anything, mock.Anything).Return(nil, store.ErrConflict)

	_, err := svc.ReviewCandidate(context.Background(), misActor, c.ID, ActionReject, "incomplete")
	assert.ErrorIs(t, err, ErrStaleStatus)
}

func TestReviewCandidate_Forbidden(t *testing.T) {
	svc := NewService(&mockStore{}, nil)
	_, err := svc.ReviewCandidate(context.Background(), Actor{UserID: uuid.New(), Role: models.RoleEmployer}, uuid.New(), ActionApprove, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestReviewCompany_NotFound(t *testing.T) {
	st := &mockStore{}
	svc := NewService(st, nil)
	id := uuid.New()
	st.On("GetCompanyByID", mock.Anything, id).Return(nil, nil)

	_, err := svc.ReviewCompany(context.Background(), misActor, id, ActionApprove, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewCompany_RevokeApprovalNeedsReason(t *testing.T) {
	st := &mockStore{}
	svc := NewService(st, nil)
	company := &models.Company{ID: uuid.New(), ApprovalStatus: models.ApprovalApproved}
	st.On("GetCompanyByID", mock.Anything, company.ID).Return(company, nil)

	_, err := svc.ReviewCompany(context.Background(), misActor, company.ID, ActionRevoke, "")
	assert.ErrorIs(t, err, ErrReasonRequired)
}

func TestSubmitCandidate(t *testing.T) {
	st := &mockStore{}
	svc := NewService(st, nil)
	userID := uuid.New()

	fresh := &models.Candidate{ID: uuid.New(), ApprovalStatus: models.ApprovalPending}
	st.On("ApplyStatusChange", mock.Anything, mock.MatchedBy(func(ch *models.StatusChange) bool {
		return ch.MarkSubmitted && !ch.Review && ch.To == models.ApprovalPending
	})).Return(&models.ApprovalEvent{}, nil)

	require.NoError(t, svc.SubmitCandidate(context.Background(), userID, fresh))

	pending := submittedCandidate(models.ApprovalPending)
	assert.ErrorIs(t, svc.SubmitCandidate(context.Background(), userID, pending), ErrAlreadySubmitted)

	approved := submittedCandidate(models.ApprovalApproved)
	assert.ErrorIs(t, svc.SubmitCandidate(context.Background(), userID, approved), ErrInvalidTransition)
}

func TestResubmitCompany(t *testing.T) {
	st := &mockStore{}
	svc := NewService(st, nil)

	rejected := &models.Company{ID: uuid.New(), ApprovalStatus: models.ApprovalRejected}
	st.On("ApplyStatusChange", mock.Anything, mock.MatchedBy(func(ch *models.StatusChange) bool {
		return ch.EntityType == models.EntityCompany && ch.From == models.ApprovalRejected && ch.To == models.ApprovalPending
	})).Return(&models.ApprovalEvent{}, nil)

	require.NoError(t, svc.ResubmitCompany(context.Background(), uuid.New(), rejected))

	pending := &models.Company{ID: uuid.New(), ApprovalStatus: models.ApprovalPending}
	assert.ErrorIs(t, svc.ResubmitCompany(context.Background(), uuid.New(), pending), ErrAlreadySubmitted)
}

func TestCandidateProfile(t *testing.T) {
	st := &mockStore{}
	svc := NewService(st, nil)

	c := submittedCandidate(models.ApprovalPending)
	st.On("GetCandidateByID", mock.Anything, c.ID).Return(c, nil)
	st.On("GetCandidateProfile", mock.Anything, c).Return(&models.CandidateProfile{Candidate: c, Email: "a@b.c"}, nil)

	p, err := svc.CandidateProfile(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", p.Email)

	missing := uuid.New()
	st.On("GetCandidateByID", mock.Anything, missing).Return(nil, nil)
	_, err = svc.CandidateProfile(context.Background(), missing)
	assert.ErrorIs(t, err, ErrNotFound)

	st.On("GetCompanyByID", mock.Anything, missing).Return(nil, nil)
	_, err = svc.Company(context.Background(), missing)
	assert.ErrorIs(t, err, ErrNotFound)
}
