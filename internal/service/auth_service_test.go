package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/unitutor/scheduling-api/internal/models"
)

type mockAuthUsers struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func (m *mockAuthUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func newAuthFixture(t *testing.T) (*AuthService, *models.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           "u-1",
		Email:        "tutor@example.edu",
		PasswordHash: string(hash),
		FullName:     "Sam Tutor",
		Role:         models.RoleTutor,
		Active:       true,
	}
	repo := &mockAuthUsers{byEmail: map[string]*models.User{user.Email: user}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "scheduling-api"})
	return svc, user
}

func TestAuthLoginAndValidate(t *testing.T) {
	svc, user := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, user.ID, res.User.ID)
	assert.Equal(t, models.RoleTutor, res.User.Role)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleTutor, claims.Role)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc, user := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "wrong"})
	appErr := asAppError(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.edu", Password: "whatever"})
	appErr := asAppError(t, err)
	// Same response for unknown email and bad password.
	assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	svc, user := newAuthFixture(t)
	user.Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	appErr := asAppError(t, err)
	assert.Equal(t, "ACCOUNT_INACTIVE", appErr.Code)
}

func TestAuthValidateTokenFailures(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)

	// Expired tokens are rejected even with a valid signature.
	expired := NewAuthService(&mockAuthUsers{byEmail: map[string]*models.User{
		"x@example.edu": {ID: "u-2", Email: "x@example.edu", Role: models.RoleStudent, Active: true, PasswordHash: mustHash(t, "pw-123456")},
	}}, nil, nil, AuthConfig{Secret: "test-secret", Expiration: -time.Minute})
	res, err := expired.Login(context.Background(), models.LoginRequest{Email: "x@example.edu", Password: "pw-123456"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(res.AccessToken)
	assert.Error(t, err)
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}
