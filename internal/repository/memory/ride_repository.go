package memory

import (
	"context"
	"fmt"
	"sync"

	"BusTicketPlatform/internal/domain"
	"BusTicketPlatform/internal/repository"
)

// RideRepository репозиторий рейсов в памяти
type RideRepository struct {
	mu    sync.RWMutex
	rides []*domain.Ride
	byID  map[string]*domain.Ride
}

// NewRideRepository создает новый репозиторий рейсов в памяти
func NewRideRepository() *RideRepository {
	return &RideRepository{byID: make(map[string]*domain.Ride)}
}

// Create сохраняет новый рейс
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[ride.ID]; exists {
		return fmt.Errorf("ride already exists: %s", ride.ID)
	}

	stored := *ride
	r.rides = append(r.rides, &stored)
	r.byID[ride.ID] = &stored
	return nil
}

// FindByID возвращает рейс по его ID
func (r *RideRepository) FindByID(ctx context.Context, id string) (*domain.Ride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ride, exists := r.byID[id]
	if !exists {
		return nil, fmt.Errorf("ride %s: %w", id, repository.ErrNotFound)
	}

	found := *ride
	return &found, nil
}

// List возвращает все рейсы в порядке создания
func (r *RideRepository) List(ctx context.Context) ([]*domain.Ride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rides := make([]*domain.Ride, 0, len(r.rides))
	for _, ride := range r.rides {
		found := *ride
		rides = append(rides, &found)
	}
	return rides, nil
}

// Update обновляет существующий рейс
func (r *RideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.byID[ride.ID]
	if !exists {
		return fmt.Errorf("ride %s: %w", ride.ID, repository.ErrNotFound)
	}

	*stored = *ride
	return nil
}
