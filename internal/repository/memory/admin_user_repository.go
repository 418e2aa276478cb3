package memory

import (
	"context"
	"fmt"
	"sync"

	"BusTicketPlatform/internal/domain"
	"BusTicketPlatform/internal/repository"
)

// AdminUserRepository репозиторий пользователей админки в памяти
type AdminUserRepository struct {
	mu    sync.RWMutex
	users []*domain.AdminUser
}

// NewAdminUserRepository создает новый репозиторий пользователей в памяти
func NewAdminUserRepository() *AdminUserRepository {
	return &AdminUserRepository{}
}

// Create сохраняет нового пользователя
func (r *AdminUserRepository) Create(ctx context.Context, user *domain.AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.ID == user.ID {
			return fmt.Errorf("admin user already exists: %s", user.ID)
		}
		if existing.Username == user.Username {
			return fmt.Errorf("username already taken: %s", user.Username)
		}
	}

	stored := *user
	r.users = append(r.users, &stored)
	return nil
}

// FindByID возвращает пользователя по его ID
func (r *AdminUserRepository) FindByID(ctx context.Context, id string) (*domain.AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.ID == id {
			found := *user
			return &found, nil
		}
	}
	return nil, fmt.Errorf("admin user %s: %w", id, repository.ErrNotFound)
}

// FindByUsername возвращает пользователя по его имени
func (r *AdminUserRepository) FindByUsername(ctx context.Context, username string) (*domain.AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			found := *user
			return &found, nil
		}
	}
	return nil, fmt.Errorf("admin user %s: %w", username, repository.ErrNotFound)
}

// List возвращает всех пользователей в порядке создания
func (r *AdminUserRepository) List(ctx context.Context) ([]*domain.AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*domain.AdminUser, 0, len(r.users))
	for _, user := range r.users {
		found := *user
		users = append(users, &found)
	}
	return users, nil
}

// Delete удаляет пользователя
func (r *AdminUserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, user := range r.users {
		if user.ID == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("admin user %s: %w", id, repository.ErrNotFound)
}
