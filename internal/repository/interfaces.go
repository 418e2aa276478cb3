package repository

import (
	"context"
	"errors"
	"time"

	"BusTicketPlatform/internal/domain"
)

// ErrNotFound возвращается реализациями, когда запрошенная запись отсутствует.
// Отделяет отсутствие записи от отказа хранилища: вызывающая сторона
// различает их через errors.Is, а не по тексту сообщения.
var ErrNotFound = errors.New("not found")

// AuditFilter фильтры выборки событий аудита.
// Незаданный фильтр не накладывает ограничений; границы From/To включительные.
type AuditFilter struct {
	Actor string
	Type  domain.AuditEventType
	From  *time.Time
	To    *time.Time
}

// AuditRepository интерфейс журнала аудита. Журнал только дописывается:
// записанные события никогда не изменяются и не удаляются.
type AuditRepository interface {
	// Append присваивает событию следующий строго возрастающий ID и метку
	// времени, дописывает его и возвращает сохраненное событие. Путь записи
	// линеаризован: конкурентные вызовы не дают дубликатов и нарушений порядка.
	Append(ctx context.Context, event *domain.AuditEvent) (*domain.AuditEvent, error)
	// Query возвращает события, удовлетворяющие конъюнкции заданных фильтров,
	// в порядке записи.
	Query(ctx context.Context, filter AuditFilter) ([]*domain.AuditEvent, error)
}

// RideRepository интерфейс для работы с рейсами
type RideRepository interface {
	Create(ctx context.Context, ride *domain.Ride) error
	FindByID(ctx context.Context, id string) (*domain.Ride, error)
	List(ctx context.Context) ([]*domain.Ride, error)
	Update(ctx context.Context, ride *domain.Ride) error
}

// TicketRepository интерфейс для работы с билетами
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	FindByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context) ([]*domain.Ticket, error)
	// SetValidated безусловно выставляет флаг валидации в обе стороны.
	// Гонки разрешаются по принципу «последняя запись побеждает».
	SetValidated(ctx context.Context, id string, validated bool) (*domain.Ticket, error)
}

// AdminUserRepository интерфейс для работы с пользователями админки
type AdminUserRepository interface {
	Create(ctx context.Context, user *domain.AdminUser) error
	FindByID(ctx context.Context, id string) (*domain.AdminUser, error)
	FindByUsername(ctx context.Context, username string) (*domain.AdminUser, error)
	List(ctx context.Context) ([]*domain.AdminUser, error)
	Delete(ctx context.Context, id string) error
}
