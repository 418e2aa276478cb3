package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"BusTicketPlatform/internal/domain"
)

// sessionClaims структура для хранения сессионных данных в подписанном токене
type sessionClaims struct {
	jwt.RegisteredClaims
}

// Service интерфейс для работы с сессионными токенами.
// Токены самодостаточны: проверка не обращается к хранилищу и не блокируется.
type Service interface {
	Create(subject string) (string, error)
	Verify(token string) (domain.Session, bool)
}

// Manager реализация Service на основе HMAC подписи.
// Подпись покрывает (subject, issuedAt, expiresAt) общим для процесса секретом;
// сравнение подписи выполняется библиотекой за константное время.
// Отозвать выданный токен до истечения TTL нельзя иначе как ротацией секрета.
type Manager struct {
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

// NewManager создает новый менеджер сессионных токенов
func NewManager(secret string, tokenTTL time.Duration) *Manager {
	return &Manager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

// NewManagerWithClock создает менеджер с подменяемыми часами, для тестов
func NewManagerWithClock(secret string, tokenTTL time.Duration, now func() time.Time) *Manager {
	return &Manager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		now:      now,
	}
}

// Create выдает подписанный токен для субъекта.
// issuedAt = now, expiresAt = now + TTL.
func (m *Manager) Create(subject string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("subject is required")
	}

	issuedAt := m.now().UTC()
	claims := &sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(m.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify проверяет токен и возвращает сессию.
// Возвращает false для любого из: некорректный формат, неверная подпись,
// истекший срок. Причины не различаются, ошибки наружу не отдаются.
func (m *Manager) Verify(tokenString string) (domain.Session, bool) {
	parsedToken, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Принимаем только HMAC подпись
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }))

	if err != nil || !parsedToken.Valid {
		return domain.Session{}, false
	}

	claims, ok := parsedToken.Claims.(*sessionClaims)
	if !ok || claims.Subject == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return domain.Session{}, false
	}

	return domain.Session{
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, true
}
