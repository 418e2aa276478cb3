package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BusTicketPlatform/internal/domain"
	"BusTicketPlatform/internal/pkg/password"
	"BusTicketPlatform/internal/repository/memory"
	"BusTicketPlatform/internal/token"
	pkgerrors "BusTicketPlatform/pkg/errors"
	"BusTicketPlatform/pkg/metrics"
	"BusTicketPlatform/pkg/ratelimit"
)

// denyAll лимитер, отклоняющий любой запрос
type denyAll struct{}

func (denyAll) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return true, nil
}

type authFixture struct {
	svc    *authService
	users  *memory.AdminUserRepository
	tokens *token.Manager
	audit  AuditService
}

func newAuthFixture(t *testing.T) *authFixture {
	users := memory.NewAdminUserRepository()
	tokens := token.NewManager("test-secret", time.Hour)
	audit := NewAuditService(memory.NewAuditRepository(), testLogger(t), metrics.NewMetrics("test"))

	svc := &authService{
		users:       users,
		tokens:      tokens,
		audit:       audit,
		hasher:      password.NewBcryptHasher(4),
		rateLimiter: ratelimit.AllowAll{},
		loginLimit:  10,
		logger:      testLogger(t),
		now:         time.Now,
	}

	return &authFixture{svc: svc, users: users, tokens: tokens, audit: audit}
}

func (f *authFixture) seedAdmin(t *testing.T, username, secret string) *domain.AdminUser {
	t.Helper()
	user, err := f.svc.CreateAdmin(context.Background(), "root", username, secret)
	require.NoError(t, err)
	return user
}

func TestAuthService_LoginIssuesVerifiableToken(t *testing.T) {
	f := newAuthFixture(t)
	f.seedAdmin(t, "dispatcher", "secret123")

	tokenString, err := f.svc.Login(context.Background(), "dispatcher", "secret123", "10.0.0.1")
	require.NoError(t, err)

	session, ok := f.tokens.Verify(tokenString)
	require.True(t, ok)
	assert.Equal(t, "dispatcher", session.Subject)
}

func TestAuthService_LoginFailuresAreUniform(t *testing.T) {
	f := newAuthFixture(t)
	f.seedAdmin(t, "dispatcher", "secret123")

	tests := []struct {
		name     string
		username string
		secret   string
	}{
		{"unknown user", "nobody", "secret123"},
		{"wrong password", "dispatcher", "wrong-pass"},
		{"empty username", "", "secret123"},
		{"empty password", "dispatcher", ""},
	}

	var messages []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Login(context.Background(), tt.username, tt.secret, "10.0.0.1")
			require.Error(t, err)
			assert.ErrorIs(t, err, pkgerrors.New(pkgerrors.ErrUnauthorized, ""))
			messages = append(messages, err.Error())
		})
	}

	// Причина отказа не раскрывается: все сообщения идентичны
	for _, message := range messages[1:] {
		assert.Equal(t, messages[0], message)
	}
}

func TestAuthService_LoginRateLimited(t *testing.T) {
	f := newAuthFixture(t)
	f.seedAdmin(t, "dispatcher", "secret123")
	f.svc.rateLimiter = denyAll{}

	_, err := f.svc.Login(context.Background(), "dispatcher", "secret123", "10.0.0.1")
	assert.ErrorIs(t, err, pkgerrors.New(pkgerrors.ErrUnauthorized, ""))
}

func TestAuthService_CreateAdminEmitsAuditEvent(t *testing.T) {
	f := newAuthFixture(t)

	user, err := f.svc.CreateAdmin(context.Background(), "root", "dispatcher", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	events, err := f.audit.Query(context.Background(), AuditQuery{Type: "user.created"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "root", events[0].Actor)
	require.Len(t, events[0].Changes, 1)
	assert.Equal(t, "username", events[0].Changes[0].Field)
	assert.Equal(t, "dispatcher", *events[0].Changes[0].After)

	// Хеш пароля в журнал не попадает
	for _, change := range events[0].Changes {
		assert.NotEqual(t, "passwordHash", change.Field)
	}
}

func TestAuthService_CreateAdminValidation(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.CreateAdmin(context.Background(), "root", "", "secret123")
	assert.ErrorIs(t, err, pkgerrors.New(pkgerrors.ErrValidation, ""))

	// Слишком короткий пароль и пароль без цифр отклоняются
	_, err = f.svc.CreateAdmin(context.Background(), "root", "dispatcher", "short1")
	assert.ErrorIs(t, err, pkgerrors.New(pkgerrors.ErrValidation, ""))

	_, err = f.svc.CreateAdmin(context.Background(), "root", "dispatcher", "onlyletters")
	assert.ErrorIs(t, err, pkgerrors.New(pkgerrors.ErrValidation, ""))
}

func TestAuthService_CreateAdminDuplicateUsername(t *testing.T) {
	f := newAuthFixture(t)
	f.seedAdmin(t, "dispatcher", "secret123")

	_, err := f.svc.CreateAdmin(context.Background(), "root", "dispatcher", "another456")
	assert.ErrorIs(t, err, pkgerrors.New(pkgerrors.ErrConflict, ""))
}

func TestAuthService_DeleteAdminEmitsAuditEvent(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedAdmin(t, "dispatcher", "secret123")

	require.NoError(t, f.svc.DeleteAdmin(context.Background(), "root", user.ID))

	_, err := f.users.FindByID(context.Background(), user.ID)
	require.Error(t, err)

	events, err := f.audit.Query(context.Background(), AuditQuery{Type: "user.deleted"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Len(t, events[0].Changes, 1)
	assert.Equal(t, "dispatcher", *events[0].Changes[0].Before)
}

func TestAuthService_DeleteAdminNotFound(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.DeleteAdmin(context.Background(), "root", "missing")
	assert.ErrorIs(t, err, pkgerrors.New(pkgerrors.ErrNotFound, ""))
}

func TestAuthService_ListAdmins(t *testing.T) {
	f := newAuthFixture(t)
	f.seedAdmin(t, "alice", "secret123")
	f.seedAdmin(t, "bob", "secret456")

	admins, err := f.svc.ListAdmins(context.Background())
	require.NoError(t, err)
	assert.Len(t, admins, 2)
}
