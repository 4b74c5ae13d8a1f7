package verification

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobgenie/internal/models"
)

type memoryCodeStore struct {
	mu    sync.Mutex
	codes []*models.VerificationCode
}

func (m *memoryCodeStore) CreateVerificationCode(_ context.Context, code *models.VerificationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.codes {
		if c.UserID == code.UserID && c.Purpose == code.Purpose && !c.ConsumedAt.Valid {
			c.ConsumedAt = sql.NullTime{Time: code.CreatedAt, Valid: true}
		}
	}
	cp := *code
	m.codes = append(m.codes, &cp)
	return nil
}

func (m *memoryCodeStore) GetLatestVerificationCode(_ context.Context, userID uuid.UUID, purpose models.CodePurpose) (*models.VerificationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.codes) - 1; i >= 0; i-- {
		if c := m.codes[i]; c.UserID == userID && c.Purpose == purpose {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryCodeStore) ClaimCodeAttempt(_ context.Context, id uuid.UUID, maxAttempts int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.codes {
		if c.ID == id {
			if c.Attempts >= maxAttempts {
				return false, nil
			}
			c.Attempts++
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryCodeStore) ConsumeVerificationCode(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.codes {
		if c.ID == id {
			if c.ConsumedAt.Valid {
				return false, nil
			}
			c.ConsumedAt = sql.NullTime{Time: at, Valid: true}
			return true, nil
		}
	}
	return false, nil
}

func newTestService() (*Service, *memoryCodeStore) {
	store := &memoryCodeStore{}
	svc := NewService(store, Config{TTL: 15 * time.Minute, MaxAttempts: 5, ResendCooldown: time.Minute})
	return svc, store
}

func TestCheck_Success(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	code, err := svc.Issue(ctx, userID, models.PurposeEmailVerification)
	require.NoError(t, err)
	assert.Len(t, code, CodeLength)

	assert.NoError(t, svc.Check(ctx, userID, models.PurposeEmailVerification, code))
}

func TestCheck_NotFound(t *testing.T) {
	svc, _ := newTestService()
	err := svc.Check(context.Background(), uuid.New(), models.PurposeEmailVerification, "123456")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestCheck_ConsumedCannotBeReused(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	code, err := svc.Issue(ctx, userID, models.PurposePasswordReset)
	require.NoError(t, err)
	require.NoError(t, svc.Check(ctx, userID, models.PurposePasswordReset, code))

	assert.ErrorIs(t, svc.Check(ctx, userID, models.PurposePasswordReset, code), ErrCodeConsumed)
}

func TestCheck_Expired(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	start := time.Now()
	svc.now = func() time.Time { return start }
	code, err := svc.Issue(ctx, userID, models.PurposeEmailVerification)
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(15 * time.Minute) }
	assert.ErrorIs(t, svc.Check(ctx, userID, models.PurposeEmailVerification, code), ErrCodeExpired)
}

func TestCheck_TooManyAttempts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	code, err := svc.Issue(ctx, userID, models.PurposeEmailVerification)
	require.NoError(t, err)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, svc.Check(ctx, userID, models.PurposeEmailVerification, wrong), ErrCodeInvalid)
	}

	assert.ErrorIs(t, svc.Check(ctx, userID, models.PurposeEmailVerification, code), ErrTooManyAttempts)
}

func TestIssue_ReplacesOlderCode(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Issue(ctx, userID, models.PurposeEmailVerification)
	require.NoError(t, err)
	second, err := svc.Issue(ctx, userID, models.PurposeEmailVerification)
	require.NoError(t, err)

	require.Len(t, store.codes, 2)
	assert.True(t, store.codes[0].ConsumedAt.Valid)
	assert.NoError(t, svc.Check(ctx, userID, models.PurposeEmailVerification, second))
}

func TestAllowResend(t *testing.T) {
	svc, _ := newTestService()

	assert.NoError(t, svc.AllowResend(models.PurposeEmailVerification, "a@example.com"))
	assert.ErrorIs(t, svc.AllowResend(models.PurposeEmailVerification, "a@example.com"), ErrResendTooSoon)
	assert.NoError(t, svc.AllowResend(models.PurposePasswordReset, "a@example.com"))
	assert.NoError(t, svc.AllowResend(models.PurposeEmailVerification, "b@example.com"))
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestCheck_ConcurrentGuessesRespectLimit(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	code, err := svc.Issue(ctx, userID, models.PurposeEmailVerification)
	require.NoError(t, err)
	wrong := wrongCode(code)

	const guesses = 50
	results := make(chan error, guesses)
	var wg sync.WaitGroup
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.Check(ctx, userID, models.PurposeEmailVerification, wrong)
		}()
	}
	wg.Wait()
	close(results)

	var invalid, limited int
	for err := range results {
		switch {
		case errors.Is(err, ErrCodeInvalid):
			invalid++
		case errors.Is(err, ErrTooManyAttempts):
			limited++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 5, invalid)
	assert.Equal(t, guesses-5, limited)
	assert.Equal(t, 5, store.codes[0].Attempts)

	assert.ErrorIs(t, svc.Check(ctx, userID, models.PurposeEmailVerification, code), ErrTooManyAttempts)
}

func TestCheck_ConcurrentCorrectCodeConsumedOnce(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	code, err := svc.Issue(ctx, userID, models.PurposePasswordReset)
	require.NoError(t, err)

	const callers = 4
	results := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.Check(ctx, userID, models.PurposePasswordReset, code)
		}()
	}
	wg.Wait()
	close(results)

	var ok int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrCodeConsumed)
	}
	assert.Equal(t, 1, ok)
}
