package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobgenie/internal/account"
	"jobgenie/internal/approval"
	"jobgenie/internal/auth"
	"jobgenie/internal/config"
	"jobgenie/internal/models"
	"jobgenie/internal/profile"
	"jobgenie/internal/resume"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeAccounts struct {
	AccountService
	registered *models.RegisterCandidateRequest
	err        error
}

func (f *fakeAccounts) RegisterCandidate(_ context.Context, req *models.RegisterCandidateRequest) (*models.User, error) {
	f.registered = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: uuid.New(), Email: req.Email, Role: models.RoleCandidate, Status: models.UserStatusPendingVerification}, nil
}

func (f *fakeAccounts) Me(_ context.Context, userID uuid.UUID) (*models.User, error) {
	return &models.User{ID: userID, Email: "me@example.com", Role: models.RoleCandidate}, f.err
}

type review struct {
	id     uuid.UUID
	action approval.Action
	reason string
	actor  approval.Actor
}

type fakeApprovals struct {
	ApprovalService
	reviews []review
	err     error
}

func (f *fakeApprovals) ReviewCandidate(_ context.Context, actor approval.Actor, id uuid.UUID, action approval.Action, reason string) (*models.Candidate, error) {
	f.reviews = append(f.reviews, review{id, action, reason, actor})
	if f.err != nil {
		return nil, f.err
	}
	return &models.Candidate{ID: id, ApprovalStatus: models.ApprovalRejected, RejectionReason: &reason}, nil
}

func (f *fakeApprovals) ListCandidates(_ context.Context, status *models.ApprovalStatus, page, pageSize int) (*models.Page[models.CandidateListItem], error) {
	return &models.Page[models.CandidateListItem]{Items: []models.CandidateListItem{}, Page: page, PageSize: pageSize}, nil
}

type fakeProfiles struct {
	ProfileService
	err error
}

func (f *fakeProfiles) Submit(context.Context, uuid.UUID) (*models.Candidate, error) {
	return nil, f.err
}

type fakeResumes struct {
	ResumeService
	fileName string
	body     []byte
}

func (f *fakeResumes) MaxBytes() int64 { return 1024 }

func (f *fakeResumes) Upload(_ context.Context, userID uuid.UUID, fileName string, r io.Reader) (*models.Candidate, error) {
	f.fileName = fileName
	f.body, _ = io.ReadAll(r)
	return &models.Candidate{UserID: userID, ResumeFileName: &fileName}, nil
}

type fakeGoogle struct{}

func (fakeGoogle) GetAuthURL(state string) string { return "https://accounts.example.com/auth?state=" + state }

func (fakeGoogle) Exchange(context.Context, string) (*models.GoogleUserInfo, error) {
	return nil, errors.New("unexpected exchange")
}

type testServer struct {
	router *gin.Engine
	jwt    *auth.JWTManager
}

func newTestServer(t *testing.T, svc Services) *testServer {
	t.Helper()
	jwtManager, err := auth.NewJWTManager(testSecret, 1, 7)
	require.NoError(t, err)

	cfg := &config.Config{
		Environment:    "test",
		FrontendURL:    "http://localhost:3000",
		MaxUploadMB:    1,
		MetricsEnabled: true,
	}
	r, err := SetupRouter(cfg, jwtManager, svc, "test")
	require.NoError(t, err)
	return &testServer{router: r, jwt: jwtManager}
}

func (s *testServer) token(t *testing.T, role models.Role) string {
	t.Helper()
	pair, err := s.jwt.GenerateTokenPair(&models.User{ID: uuid.New(), Email: string(role) + "@example.com", Role: role})
	require.NoError(t, err)
	return pair.AccessToken
}

func (s *testServer) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path string, body any) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, Services{})
	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil), "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestOperationalRoutes(t *testing.T) {
	s := newTestServer(t, Services{})

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, Services{Accounts: &fakeAccounts{}})

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, w).Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", decodeError(t, w).Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), s.token(t, models.RoleCandidate))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "me@example.com")
}

func TestRequireRole(t *testing.T) {
	s := newTestServer(t, Services{Approvals: &fakeApprovals{}})

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/mis/candidates", nil), s.token(t, models.RoleEmployer))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/mis/candidates?page=0&page_size=500", nil), s.token(t, models.RoleMIS))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"page":1`)
	assert.Contains(t, w.Body.String(), `"page_size":100`)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/mis/candidates?status=archived", nil), s.token(t, models.RoleMIS))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterCandidate(t *testing.T) {
	accounts := &fakeAccounts{}
	s := newTestServer(t, Services{Accounts: accounts})

	w := s.do(jsonRequest(http.MethodPost, "/api/v1/auth/candidates/register", gin.H{
		"email": "ada@example.com", "password": "secret123", "first_name": "Ada", "last_name": "Lovelace",
	}), "")
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, accounts.registered)
	assert.Equal(t, "Ada", accounts.registered.FirstName)
}

func TestRegisterCandidate_Validation(t *testing.T) {
	accounts := &fakeAccounts{}
	s := newTestServer(t, Services{Accounts: accounts})

	w := s.do(jsonRequest(http.MethodPost, "/api/v1/auth/candidates/register", gin.H{
		"email": "not-an-email", "password": "password", "first_name": "Ada",
	}), "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeError(t, w)
	assert.Equal(t, "INVALID_REQUEST", resp.Code)
	assert.Contains(t, resp.Details, "email: email")
	assert.Contains(t, resp.Details, "password: password")
	assert.Contains(t, resp.Details, "last_name: required")
	assert.Nil(t, accounts.registered)
}

func TestRegisterCandidate_EmailTaken(t *testing.T) {
	s := newTestServer(t, Services{Accounts: &fakeAccounts{err: account.ErrEmailTaken}})

	w := s.do(jsonRequest(http.MethodPost, "/api/v1/auth/candidates/register", gin.H{
		"email": "ada@example.com", "password": "secret123", "first_name": "Ada", "last_name": "Lovelace",
	}), "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "EMAIL_TAKEN", decodeError(t, w).Code)
}

func TestReviewCandidate(t *testing.T) {
	approvals := &fakeApprovals{}
	s := newTestServer(t, Services{Approvals: approvals})
	id := uuid.New()

	w := s.do(jsonRequest(http.MethodPost, "/api/v1/mis/candidates/"+id.String()+"/reject", gin.H{"reason": "Missing degree"}),
		s.token(t, models.RoleMIS))
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, approvals.reviews, 1)
	got := approvals.reviews[0]
	assert.Equal(t, id, got.id)
	assert.Equal(t, approval.ActionReject, got.action)
	assert.Equal(t, "Missing degree", got.reason)
	assert.Equal(t, models.RoleMIS, got.actor.Role)
}

func TestReviewCandidate_Errors(t *testing.T) {
	approvals := &fakeApprovals{err: approval.ErrReasonRequired}
	s := newTestServer(t, Services{Approvals: approvals})
	mis := s.token(t, models.RoleMIS)
	id := uuid.New().String()

	w := s.do(jsonRequest(http.MethodPost, "/api/v1/mis/candidates/"+id+"/archive", nil), mis)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", decodeError(t, w).Code)

	w = s.do(jsonRequest(http.MethodPost, "/api/v1/mis/candidates/not-a-uuid/approve", nil), mis)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", decodeError(t, w).Code)

	w = s.do(jsonRequest(http.MethodPost, "/api/v1/mis/candidates/"+id+"/reject", nil), mis)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "REASON_REQUIRED", decodeError(t, w).Code)
}

func TestSubmitProfile_Incomplete(t *testing.T) {
	profiles := &fakeProfiles{err: &profile.IncompleteError{Missing: []string{"phone", "resume"}}}
	s := newTestServer(t, Services{Profiles: profiles})

	w := s.do(jsonRequest(http.MethodPost, "/api/v1/candidate/profile/submit", nil), s.token(t, models.RoleCandidate))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	resp := decodeError(t, w)
	assert.Equal(t, "PROFILE_INCOMPLETE", resp.Code)
	assert.Equal(t, "phone,resume", resp.Details)
}

func TestUnhandledErrorsHideDetails(t *testing.T) {
	profiles := &fakeProfiles{err: errors.New("pq: connection refused")}
	s := newTestServer(t, Services{Profiles: profiles})

	w := s.do(jsonRequest(http.MethodPost, "/api/v1/candidate/profile/submit", nil), s.token(t, models.RoleCandidate))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, w).Code)
}

func multipartUpload(t *testing.T, fileName string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/candidate/resume", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadResume(t *testing.T) {
	resumes := &fakeResumes{}
	s := newTestServer(t, Services{Resumes: resumes})
	token := s.token(t, models.RoleCandidate)

	w := s.do(multipartUpload(t, "cv.pdf", []byte("%PDF-1.4")), token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cv.pdf", resumes.fileName)
	assert.Equal(t, []byte("%PDF-1.4"), resumes.body)

	w = s.do(multipartUpload(t, "big.pdf", bytes.Repeat([]byte("x"), 2048)), token)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "FILE_TOO_LARGE", decodeError(t, w).Code)

	w = s.do(httptest.NewRequest(http.MethodPost, "/api/v1/candidate/resume", strings.NewReader("")), token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorMappings(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{resume.ErrUnsupportedType, http.StatusUnsupportedMediaType, "UNSUPPORTED_FILE_TYPE"},
		{approval.ErrStaleStatus, http.StatusConflict, "STALE_STATUS"},
		{profile.ErrCompanyNotApproved, http.StatusForbidden, "COMPANY_NOT_APPROVED"},
		{account.ErrEmailNotVerified, http.StatusForbidden, "EMAIL_NOT_VERIFIED"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, errors.Join(errors.New("context"), tt.err))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestGoogleCallback_StateMismatch(t *testing.T) {
	s := newTestServer(t, Services{Google: fakeGoogle{}})

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/auth/google", nil), "")
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "state=")
	assert.Contains(t, w.Header().Get("Set-Cookie"), oauthStateCookie+"=")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=forged&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "expected"})
	w = s.do(req, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_STATE", decodeError(t, w).Code)
}

func TestGoogleRoutesDisabled(t *testing.T) {
	s := newTestServer(t, Services{})
	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/auth/google", nil), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApprovalHistory_InvalidEntity(t *testing.T) {
	s := newTestServer(t, Services{Approvals: &fakeApprovals{}})
	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/mis/approvals/jobs/"+uuid.NewString()+"/history", nil),
		s.token(t, models.RoleMIS))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
