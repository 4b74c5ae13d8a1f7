package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobgenie/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testUser(role models.Role) *models.User {
	return &models.User{ID: uuid.New(), Email: "user@example.com", Role: role}
}

func TestNewJWTManager_RejectsShortSecret(t *testing.T) {
	_, err := NewJWTManager("short", 1, 1)
	assert.Error(t, err)

	_, err = NewJWTManager("", 1, 1)
	assert.Error(t, err)
}

func TestGenerateAndValidate(t *testing.T) {
	m, err := NewJWTManager(testSecret, 1, 7)
	require.NoError(t, err)

	user := testUser(models.RoleEmployer)
	pair, err := m.GenerateTokenPair(user)
	require.NoError(t, err)
	assert.Equal(t, 3600, pair.ExpiresIn)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, models.RoleEmployer, claims.Role)
	assert.Equal(t, 7*24*time.Hour, m.RefreshExpiry())
}

func TestValidate_Expired(t *testing.T) {
	m, err := NewJWTManager(testSecret, 1, 7)
	require.NoError(t, err)

	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }
	pair, err := m.GenerateTokenPair(testUser(models.RoleCandidate))
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateAccessToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestValidate_WrongSecret(t *testing.T) {
	a, _ := NewJWTManager(testSecret, 1, 7)
	b, _ := NewJWTManager("fedcba9876543210fedcba9876543210", 1, 7)

	pair, err := a.GenerateTokenPair(testUser(models.RoleMIS))
	require.NoError(t, err)

	_, err = b.ValidateAccessToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestHashToken(t *testing.T) {
	h := HashToken("abc")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashToken("abc"))
	assert.NotEqual(t, h, HashToken("abd"))
}
