package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"BusTicketPlatform/internal/domain"
	"BusTicketPlatform/internal/pkg/password"
	"BusTicketPlatform/internal/repository"
	"BusTicketPlatform/internal/token"
	"BusTicketPlatform/pkg/errors"
	"BusTicketPlatform/pkg/logger"
	"BusTicketPlatform/pkg/ratelimit"
)

// AuthService аутентификация и управление пользователями админки.
// Логин выдает самодостаточный подписанный токен; логаут на сервере ничего
// не инвалидирует — стирается только клиентская копия, перехваченный токен
// остается валидным до истечения TTL (принятый открытый вопрос безопасности).
type AuthService interface {
	// Login проверяет учетные данные и возвращает подписанный токен.
	// Любой отказ — ErrUnauthorized без различения причины.
	Login(ctx context.Context, username, secret, clientIP string) (string, error)
	CreateAdmin(ctx context.Context, actor, username, secret string) (*domain.AdminUser, error)
	DeleteAdmin(ctx context.Context, actor, id string) error
	ListAdmins(ctx context.Context) ([]*domain.AdminUser, error)
}

// authService реализация AuthService
type authService struct {
	users       repository.AdminUserRepository
	tokens      token.Service
	audit       AuditService
	hasher      password.Hasher
	rateLimiter ratelimit.RateLimiter
	loginLimit  int
	logger      logger.Logger
	now         func() time.Time
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(
	users repository.AdminUserRepository,
	tokens token.Service,
	audit AuditService,
	hasher password.Hasher,
	limiter ratelimit.RateLimiter,
	loginLimit int,
	log logger.Logger,
) AuthService {
	return &authService{
		users:       users,
		tokens:      tokens,
		audit:       audit,
		hasher:      hasher,
		rateLimiter: limiter,
		loginLimit:  loginLimit,
		logger:      log,
		now:         time.Now,
	}
}

// errUnauthorized единый отказ логина: причина не различается, чтобы не
// раскрывать, существует ли пользователь и валиден ли пароль
func errUnauthorized() *errors.Error {
	return errors.New(errors.ErrUnauthorized, "unauthorized")
}

// Login проверяет учетные данные и выдает сессионный токен
func (s *authService) Login(ctx context.Context, username, secret, clientIP string) (string, error) {
	limited, err := s.rateLimiter.CheckRateLimit(ctx, "login:"+clientIP, s.loginLimit, time.Minute)
	if err != nil {
		s.logger.Warn("rate limiter unavailable, refusing login",
			logger.String("client_ip", clientIP),
			logger.Error(err))
		return "", errUnauthorized()
	}
	if limited {
		s.logger.Warn("login rate limit exceeded", logger.String("client_ip", clientIP))
		return "", errUnauthorized()
	}

	if username == "" || secret == "" {
		return "", errUnauthorized()
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", errUnauthorized()
	}

	if !s.hasher.Check(secret, user.PasswordHash) {
		s.logger.Warn("failed login attempt",
			logger.String("username", username),
			logger.String("client_ip", clientIP))
		return "", errUnauthorized()
	}

	tokenString, err := s.tokens.Create(user.Username)
	if err != nil {
		s.logger.Error("failed to create session token", logger.Error(err))
		return "", errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	s.logger.Info("admin logged in", logger.String("username", username))
	return tokenString, nil
}

// CreateAdmin создает пользователя админки и записывает событие user.created
func (s *authService) CreateAdmin(ctx context.Context, actor, username, secret string) (*domain.AdminUser, error) {
	if username == "" {
		return nil, errors.New(errors.ErrValidation, "username is required")
	}
	if !s.hasher.Validate(secret) {
		return nil, errors.New(errors.ErrValidation, "password does not meet minimum requirements")
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, errors.New(errors.ErrConflict, "username already taken")
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		s.logger.Error("failed to check username", logger.Error(err))
		return nil, errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		s.logger.Error("failed to hash password", logger.Error(err))
		return nil, errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	user := &domain.AdminUser{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("failed to create admin user", logger.Error(err))
		return nil, errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	_, err = s.audit.Emit(ctx, &domain.AuditEvent{
		Actor:       actor,
		Type:        domain.AuditUserCreated,
		Description: fmt.Sprintf("created admin user %s", username),
		Changes: []domain.FieldChange{
			{Field: "username", After: strPtr(username)},
		},
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// DeleteAdmin удаляет пользователя админки и записывает событие user.deleted
func (s *authService) DeleteAdmin(ctx context.Context, actor, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "admin user not found")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete admin user", logger.Error(err))
		return errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	_, err = s.audit.Emit(ctx, &domain.AuditEvent{
		Actor:       actor,
		Type:        domain.AuditUserDeleted,
		Description: fmt.Sprintf("deleted admin user %s", user.Username),
		Changes: []domain.FieldChange{
			{Field: "username", Before: strPtr(user.Username)},
		},
	})
	return err
}

// ListAdmins возвращает всех пользователей админки
func (s *authService) ListAdmins(ctx context.Context) ([]*domain.AdminUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		s.logger.Error("failed to list admin users", logger.Error(err))
		return nil, errors.Wrap(err, errors.ErrInternal, "internal error")
	}
	return users, nil
}
