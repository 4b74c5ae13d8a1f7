package invitation

import (
	"context"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"jobgenie/internal/auth"
	"jobgenie/internal/events"
	"jobgenie/internal/models"
	"jobgenie/internal/store"
	"jobgenie/internal/verification"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockStore) GetEmployerByUserID(ctx context.Context, userID uuid.UUID) (*models.Employer, error) {
	args := m.Called(ctx, userID)
	e, _ := args.Get(0).(*models.Employer)
	return e, args.Error(1)
}

func (m *mockStore) GetEmployerByID(ctx context.Context, id uuid.UUID) (*models.Employer, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*models.Employer)
	return e, args.Error(1)
}

func (m *mockStore) GetCompanyByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Company)
	return c, args.Error(1)
}

func (m *mockStore) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *mockStore) GetInvitationByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	args := m.Called(ctx, id)
	i, _ := args.Get(0).(*models.Invitation)
	return i, args.Error(1)
}

func (m *mockStore) GetInvitationByTokenHash(ctx context.Context, tokenHash string) (*models.Invitation, error) {
	args := m.Called(ctx, tokenHash)
	i, _ := args.Get(0).(*models.Invitation)
	return i, args.Error(1)
}

func (m *mockStore) GetLivePendingInvitation(ctx context.Context, companyID uuid.UUID, email string) (*models.Invitation, error) {
	args := m.Called(ctx, companyID, email)
	i, _ := args.Get(0).(*models.Invitation)
	return i, args.Error(1)
}

func (m *mockStore) ListInvitations(ctx context.Context, companyID uuid.UUID) ([]models.Invitation, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]models.Invitation), args.Error(1)
}

func (m *mockStore) UpdateInvitationStatus(ctx context.Context, id uuid.UUID, from, to models.InvitationStatus) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *mockStore) AcceptInvitation(ctx context.Context, inv *models.Invitation, user *models.User, employer *models.Employer) error {
	return m.Called(ctx, inv, user, employer).Error(0)
}

func (m *mockStore) ListCompanyMembers(ctx context.Context, companyID uuid.UUID) ([]models.EmployerMember, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]models.EmployerMember), args.Error(1)
}

func (m *mockStore) RemoveEmployer(ctx context.Context, employer *models.Employer) error {
	return m.Called(ctx, employer).Error(0)
}

type stubSessions struct {
	issued []*models.User
}

func (s *stubSessions) IssueSession(_ context.Context, user *models.User) (*models.AuthResponse, error) {
	s.issued = append(s.issued, user)
	return &models.AuthResponse{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", User: user.ToResponse()}, nil
}

var hasher = auth.NewPasswordHasher(bcrypt.MinCost)

func newService(st *mockStore, bus EventBus.Bus) (*Service, *stubSessions) {
	sessions := &stubSessions{}
	return NewService(st, sessions, hasher, bus, time.Hour), sessions
}

func superAdminOf(status models.ApprovalStatus) (*models.Employer, *models.Company) {
	company := &models.Company{ID: uuid.New(), Name: "Acme", ApprovalStatus: status}
	employer := &models.Employer{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		CompanyID:    company.ID,
		FirstName:    "Grace",
		LastName:     "Hopper",
		IsSuperAdmin: true,
		Permissions:  pq.StringArray(models.AllPermissions),
	}
	return employer, company
}

func TestInvite(t *testing.T) {
	st := &mockStore{}
	bus := EventBus.New()
	var published []events.InvitationCreated
	require.NoError(t, bus.Subscribe(events.InvitationCreatedTopic, func(e events.InvitationCreated) {
		published = append(published, e)
	}))
	svc, _ := newService(st, bus)
	admin, company := superAdminOf(models.ApprovalApproved)

	st.On("GetEmployerByUserID", mock.Anything, admin.UserID).Return(admin, nil)
	st.On("GetCompanyByID", mock.Anything, company.ID).Return(company, nil)
	st.On("GetUserByEmail", mock.Anything, "sub@acme.test").Return(nil, nil)
	st.On("GetLivePendingInvitation", mock.Anything, company.ID, "sub@acme.test").Return(nil, nil)
	st.On("CreateInvitation", mock.Anything, mock.AnythingOfType("*models.Invitation")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Invitation).ID = uuid.New()
		}).Return(nil)

	inv, err := svc.Invite(context.Background(), admin.UserID, &models.InviteRequest{
		Email:       " Sub@Acme.test ",
		Permissions: []string{"post_jobs", "post_jobs"},
	})
	require.NoError(t, err)

	assert.Equal(t, "sub@acme.test", inv.Email)
	assert.Equal(t, pq.StringArray{"post_jobs"}, inv.Permissions)
	assert.Equal(t, admin.ID, inv.InvitedBy)

	require.Len(t, published, 1)
	e := published[0]
	assert.Equal(t, "Acme", e.CompanyName)
	assert.Equal(t, "Grace Hopper", e.InviterName)
	assert.Equal(t, inv.TokenHash, verification.HashCode(e.Token))
	assert.True(t, hasher.Compare(inv.TempPasswordHash, e.TempPassword))
	assert.Len(t, e.TempPassword, verification.TempPasswordLength)
}

func TestInvite_Rules(t *testing.T) {
	admin, approved := superAdminOf(models.ApprovalApproved)
	_, pendingCompany := superAdminOf(models.ApprovalPending)
	subAdmin := &models.Employer{ID: uuid.New(), UserID: uuid.New(), CompanyID: approved.ID}

	tests := []struct {
		name    string
		actor   *models.Employer
		company *models.Company
		req     models.InviteRequest
		setup   func(st *mockStore)
		wantErr error
	}{
		{
			name:    "sub-admin cannot invite",
			actor:   subAdmin,
			company: approved,
			req:     models.InviteRequest{Email: "a@b.c"},
			wantErr: ErrNotSuperAdmin,
		},
		{
			name:    "unapproved company",
			actor:   &models.Employer{ID: uuid.New(), UserID: uuid.New(), CompanyID: pendingCompany.ID, IsSuperAdmin: true},
			company: pendingCompany,
			req:     models.InviteRequest{Email: "a@b.c"},
			wantErr: ErrCompanyNotApproved,
		},
		{
			name:    "manage_company is not delegable",
			actor:   admin,
			company: approved,
			req:     models.InviteRequest{Email: "a@b.c", Permissions: []string{"manage_company"}},
			wantErr: ErrInvalidPermission,
		},
		{
			name:    "unknown permission",
			actor:   admin,
			company: approved,
			req:     models.InviteRequest{Email: "a@b.c", Permissions: []string{"fire_everyone"}},
			wantErr: ErrInvalidPermission,
		},
		{
			name:    "existing user",
			actor:   admin,
			company: approved,
			req:     models.InviteRequest{Email: "a@b.c"},
			setup: func(st *mockStore) {
				st.On("GetUserByEmail", mock.Anything, "a@b.c").Return(&models.User{ID: uuid.New()}, nil)
			},
			wantErr: ErrEmailTaken,
		},
		{
			name:    "already invited",
			actor:   admin,
			company: approved,
			req:     models.InviteRequest{Email: "a@b.c"},
			setup: func(st *mockStore) {
				st.On("GetUserByEmail", mock.Anything, "a@b.c").Return(nil, nil)
				st.On("GetLivePendingInvitation", mock.Anything, approved.ID, "a@b.c").Return(&models.Invitation{ID: uuid.New()}, nil)
			},
			wantErr: ErrAlreadyInvited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &mockStore{}
			st.On("GetEmployerByUserID", mock.Anything, tt.actor.UserID).Return(tt.actor, nil)
			st.On("GetCompanyByID", mock.Anything, tt.company.ID).Return(tt.company, nil)
			if tt.setup != nil {
				tt.setup(st)
			}
			svc, _ := newService(st, nil)

			_, err := svc.Invite(context.Background(), tt.actor.UserID, &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			st.AssertNotCalled(t, "CreateInvitation", mock.Anything, mock.Anything)
		})
	}
}

func pendingInvitation(t *testing.T, token, tempPassword string, expiresAt time.Time) *models.Invitation {
	t.Helper()
	hash, err := hasher.Hash(tempPassword)
	require.NoError(t, err)
	return &models.Invitation{
		ID:               uuid.New(),
		CompanyID:        uuid.New(),
		Email:            "sub@acme.test",
		Permissions:      pq.StringArray{"view_candidates"},
		TokenHash:        verification.HashCode(token),
		TempPasswordHash: hash,
		Status:           models.InvitationPending,
		ExpiresAt:        expiresAt,
	}
}

func TestAccept(t *testing.T) {
	st := &mockStore{}
	svc, sessions := newService(st, nil)
	inv := pendingInvitation(t, "tok", "Temp#Pass23", time.Now().Add(time.Hour))

	st.On("GetInvitationByTokenHash", mock.Anything, inv.TokenHash).Return(inv, nil)
	st.On("GetUserByEmail", mock.Anything, inv.Email).Return(nil, nil)
	st.On("AcceptInvitation", mock.Anything, inv, mock.AnythingOfType("*models.User"), mock.AnythingOfType("*models.Employer")).
		Return(nil)

	resp, err := svc.Accept(context.Background(), &models.AcceptInvitationRequest{
		Token:        "tok",
		TempPassword: "Temp#Pass23",
		NewPassword:  "brandnew42",
		FirstName:    "Sub",
		LastName:     "Admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "access", resp.AccessToken)

	require.Len(t, sessions.issued, 1)
	user := sessions.issued[0]
	assert.Equal(t, models.RoleEmployer, user.Role)
	assert.Equal(t, models.UserStatusActive, user.Status)
	assert.True(t, hasher.Compare(user.PasswordHash.String, "brandnew42"))

	employer := st.Calls[len(st.Calls)-1].Arguments.Get(3).(*models.Employer)
	assert.False(t, employer.IsSuperAdmin)
	assert.Equal(t, pq.StringArray{"view_candidates"}, employer.Permissions)
}

func TestAccept_Expired(t *testing.T) {
	st := &mockStore{}
	svc, sessions := newService(st, nil)
	inv := pendingInvitation(t, "tok", "Temp#Pass23", time.Now().Add(-time.Minute))

	st.On("GetInvitationByTokenHash", mock.Anything, inv.TokenHash).Return(inv, nil)
	st.On("UpdateInvitationStatus", mock.Anything, inv.ID, models.InvitationPending, models.InvitationExpired).Return(nil)

	_, err := svc.Accept(context.Background(), &models.AcceptInvitationRequest{
		Token: "tok", TempPassword: "Temp#Pass23", NewPassword: "brandnew42",
	})
	assert.ErrorIs(t, err, ErrInvitationExpired)
	st.AssertCalled(t, "UpdateInvitationStatus", mock.Anything, inv.ID, models.InvitationPending, models.InvitationExpired)
	assert.Empty(t, sessions.issued)
}

func TestAccept_Failures(t *testing.T) {
	t.Run("unknown token", func(t *testing.T) {
		st := &mockStore{}
		st.On("GetInvitationByTokenHash", mock.Anything, mock.Anything).Return(nil, nil)
		svc, _ := newService(st, nil)

		_, err := svc.Accept(context.Background(), &models.AcceptInvitationRequest{Token: "nope"})
		assert.ErrorIs(t, err, ErrInvitationNotFound)
	})

	t.Run("revoked", func(t *testing.T) {
		st := &mockStore{}
		inv := pendingInvitation(t, "tok", "Temp#Pass23", time.Now().Add(time.Hour))
		inv.Status = models.InvitationRevoked
		st.On("GetInvitationByTokenHash", mock.Anything, inv.TokenHash).Return(inv, nil)
		svc, _ := newService(st, nil)

		_, err := svc.Accept(context.Background(), &models.AcceptInvitationRequest{Token: "tok"})
		assert.ErrorIs(t, err, ErrInvitationClosed)
	})

	t.Run("wrong temporary password", func(t *testing.T) {
		st := &mockStore{}
		inv := pendingInvitation(t, "tok", "Temp#Pass23", time.Now().Add(time.Hour))
		st.On("GetInvitationByTokenHash", mock.Anything, inv.TokenHash).Return(inv, nil)
		svc, _ := newService(st, nil)

		_, err := svc.Accept(context.Background(), &models.AcceptInvitationRequest{
			Token: "tok", TempPassword: "guess", NewPassword: "brandnew42",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("accepted concurrently", func(t *testing.T) {
		st := &mockStore{}
		inv := pendingInvitation(t, "tok", "Temp#Pass23", time.Now().Add(time.Hour))
		st.On("GetInvitationByTokenHash", mock.Anything, inv.TokenHash).Return(inv, nil)
		st.On("GetUserByEmail", mock.Anything, inv.Email).Return(nil, nil)
		st.On("AcceptInvitation", mock.Anything, inv, mock.Anything, mock.Anything).Return(store.ErrConflict)
		svc, _ := newService(st, nil)

		_, err := svc.Accept(context.Background(), &models.AcceptInvitationRequest{
			Token: "tok", TempPassword: "Temp#Pass23", NewPassword: "brandnew42",
		})
		assert.ErrorIs(t, err, ErrInvitationClosed)
	})
}

func TestRevoke(t *testing.T) {
	admin, company := superAdminOf(models.ApprovalApproved)
	own := &models.Invitation{ID: uuid.New(), CompanyID: company.ID, Status: models.InvitationPending}
	foreign := &models.Invitation{ID: uuid.New(), CompanyID: uuid.New(), Status: models.InvitationPending}

	st := &mockStore{}
	st.On("GetEmployerByUserID", mock.Anything, admin.UserID).Return(admin, nil)
	st.On("GetCompanyByID", mock.Anything, company.ID).Return(company, nil)
	st.On("GetInvitationByID", mock.Anything, own.ID).Return(own, nil)
	st.On("GetInvitationByID", mock.Anything, foreign.ID).Return(foreign, nil)
	st.On("UpdateInvitationStatus", mock.Anything, own.ID, models.InvitationPending, models.InvitationRevoked).Return(nil)
	svc, _ := newService(st, nil)

	require.NoError(t, svc.Revoke(context.Background(), admin.UserID, own.ID))
	assert.ErrorIs(t, svc.Revoke(context.Background(), admin.UserID, foreign.ID), ErrInvitationNotFound)
}

func TestListSubAdmins_ExcludesSuperAdmins(t *testing.T) {
	admin, company := superAdminOf(models.ApprovalApproved)
	st := &mockStore{}
	st.On("GetEmployerByUserID", mock.Anything, admin.UserID).Return(admin, nil)
	st.On("GetCompanyByID", mock.Anything, company.ID).Return(company, nil)
	st.On("ListCompanyMembers", mock.Anything, company.ID).Return([]models.EmployerMember{
		{Employer: *admin, Email: "boss@acme.test"},
		{Employer: models.Employer{ID: uuid.New(), CompanyID: company.ID}, Email: "sub@acme.test"},
	}, nil)
	svc, _ := newService(st, nil)

	members, err := svc.ListSubAdmins(context.Background(), admin.UserID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "sub@acme.test", members[0].Email)
}

func TestRemoveSubAdmin(t *testing.T) {
	admin, company := superAdminOf(models.ApprovalApproved)
	sub := &models.Employer{ID: uuid.New(), UserID: uuid.New(), CompanyID: company.ID}
	otherAdmin := &models.Employer{ID: uuid.New(), CompanyID: company.ID, IsSuperAdmin: true}
	outsider := &models.Employer{ID: uuid.New(), CompanyID: uuid.New()}

	st := &mockStore{}
	st.On("GetEmployerByUserID", mock.Anything, admin.UserID).Return(admin, nil)
	st.On("GetCompanyByID", mock.Anything, company.ID).Return(company, nil)
	st.On("GetEmployerByID", mock.Anything, sub.ID).Return(sub, nil)
	st.On("GetEmployerByID", mock.Anything, admin.ID).Return(admin, nil)
	st.On("GetEmployerByID", mock.Anything, otherAdmin.ID).Return(otherAdmin, nil)
	st.On("GetEmployerByID", mock.Anything, outsider.ID).Return(outsider, nil)
	st.On("RemoveEmployer", mock.Anything, sub).Return(nil)
	svc, _ := newService(st, nil)

	ctx := context.Background()
	require.NoError(t, svc.RemoveSubAdmin(ctx, admin.UserID, sub.ID))
	assert.ErrorIs(t, svc.RemoveSubAdmin(ctx, admin.UserID, admin.ID), ErrCannotRemove)
	assert.ErrorIs(t, svc.RemoveSubAdmin(ctx, admin.UserID, otherAdmin.ID), ErrCannotRemove)
	assert.ErrorIs(t, svc.RemoveSubAdmin(ctx, admin.UserID, outsider.ID), ErrSubAdminNotFound)
	st.AssertNumberOfCalls(t, "RemoveEmployer", 1)
}
