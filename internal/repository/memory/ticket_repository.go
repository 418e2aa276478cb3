package memory

import (
	"context"
	"fmt"
	"sync"

	"BusTicketPlatform/internal/domain"
	"BusTicketPlatform/internal/repository"
)

// TicketRepository репозиторий билетов в памяти
type TicketRepository struct {
	mu      sync.RWMutex
	tickets []*domain.Ticket
	byID    map[string]*domain.Ticket
}

// NewTicketRepository создает новый репозиторий билетов в памяти
func NewTicketRepository() *TicketRepository {
	return &TicketRepository{byID: make(map[string]*domain.Ticket)}
}

// Create сохраняет новый билет
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[ticket.ID]; exists {
		return fmt.Errorf("ticket already exists: %s", ticket.ID)
	}

	stored := *ticket
	r.tickets = append(r.tickets, &stored)
	r.byID[ticket.ID] = &stored
	return nil
}

// FindByID возвращает билет по его ID
func (r *TicketRepository) FindByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ticket, exists := r.byID[id]
	if !exists {
		return nil, fmt.Errorf("ticket %s: %w", id, repository.ErrNotFound)
	}

	found := *ticket
	return &found, nil
}

// List возвращает все билеты в порядке создания
func (r *TicketRepository) List(ctx context.Context) ([]*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tickets := make([]*domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		found := *ticket
		tickets = append(tickets, &found)
	}
	return tickets, nil
}

// SetValidated безусловно выставляет флаг валидации билета.
// Запись под мьютексом: при гонке побеждает последняя.
func (r *TicketRepository) SetValidated(ctx context.Context, id string, validated bool) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, exists := r.byID[id]
	if !exists {
		return nil, fmt.Errorf("ticket %s: %w", id, repository.ErrNotFound)
	}

	ticket.Validated = validated

	applied := *ticket
	return &applied, nil
}
