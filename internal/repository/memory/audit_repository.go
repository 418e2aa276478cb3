// Package memory содержит репозитории в памяти процесса.
// Это не глобальные коллекции: каждый репозиторий конструируется при старте,
// внедряется в обработчики и сериализует записи собственным мьютексом.
package memory

import (
	"context"
	"sync"
	"time"

	"BusTicketPlatform/internal/domain"
	"BusTicketPlatform/internal/repository"
)

// AuditRepository журнал аудита в памяти.
// Путь записи линеаризован мьютексом: ID строго возрастают, метки времени
// не убывают по журналу (при равенстве часов допускаются совпадения).
type AuditRepository struct {
	mu     sync.Mutex
	nextID int64
	lastTS time.Time
	events []*domain.AuditEvent
	now    func() time.Time
}

// NewAuditRepository создает новый журнал аудита в памяти
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{nextID: 1, now: time.Now}
}

// NewAuditRepositoryWithClock создает журнал с подменяемыми часами, для тестов
func NewAuditRepositoryWithClock(now func() time.Time) *AuditRepository {
	return &AuditRepository{nextID: 1, now: now}
}

// Append дописывает событие в журнал и возвращает его с присвоенными ID и меткой времени
func (r *AuditRepository) Append(ctx context.Context, event *domain.AuditEvent) (*domain.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Часы могут идти назад; журнал — нет
	timestamp := r.now()
	if timestamp.Before(r.lastTS) {
		timestamp = r.lastTS
	}
	r.lastTS = timestamp

	stored := *event
	stored.ID = r.nextID
	stored.Timestamp = timestamp
	stored.Changes = append([]domain.FieldChange(nil), event.Changes...)

	r.nextID++
	r.events = append(r.events, &stored)

	// Возвращаем копию: записанное событие неизменяемо
	returned := stored
	return &returned, nil
}

// Query возвращает события, удовлетворяющие всем заданным фильтрам, в порядке записи
func (r *AuditRepository) Query(ctx context.Context, filter repository.AuditFilter) ([]*domain.AuditEvent, error) {
	r.mu.Lock()
	snapshot := make([]*domain.AuditEvent, len(r.events))
	copy(snapshot, r.events)
	r.mu.Unlock()

	var matched []*domain.AuditEvent
	for _, event := range snapshot {
		if filter.Actor != "" && event.Actor != filter.Actor {
			continue
		}
		if filter.Type != "" && event.Type != filter.Type {
			continue
		}
		if filter.From != nil && event.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && event.Timestamp.After(*filter.To) {
			continue
		}
		// Отдаем копию: наружу не должен утечь указатель на запись журнала
		found := *event
		found.Changes = append([]domain.FieldChange(nil), event.Changes...)
		matched = append(matched, &found)
	}

	return matched, nil
}
