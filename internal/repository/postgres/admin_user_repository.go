package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"BusTicketPlatform/internal/domain"
	"BusTicketPlatform/internal/repository"
)

// AdminUserRepository реализация репозитория пользователей админки для PostgreSQL
type AdminUserRepository struct {
	pool *pgxpool.Pool
}

// NewAdminUserRepository создает новый экземпляр AdminUserRepository
func NewAdminUserRepository(pool *pgxpool.Pool) repository.AdminUserRepository {
	return &AdminUserRepository{pool: pool}
}

// Create сохраняет нового пользователя админки
func (r *AdminUserRepository) Create(ctx context.Context, user *domain.AdminUser) error {
	query := `INSERT INTO admin_users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	return nil
}

// FindByID возвращает пользователя по его ID
func (r *AdminUserRepository) FindByID(ctx context.Context, id string) (*domain.AdminUser, error) {
	query := `SELECT id, username, password_hash, created_at FROM admin_users WHERE id = $1`

	user, err := scanAdminUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("admin user %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get admin user by id: %w", err)
	}

	return user, nil
}

// FindByUsername возвращает пользователя по его имени
func (r *AdminUserRepository) FindByUsername(ctx context.Context, username string) (*domain.AdminUser, error) {
	query := `SELECT id, username, password_hash, created_at FROM admin_users WHERE username = $1`

	user, err := scanAdminUser(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("admin user %s: %w", username, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get admin user by username: %w", err)
	}

	return user, nil
}

// List возвращает всех пользователей админки
func (r *AdminUserRepository) List(ctx context.Context) ([]*domain.AdminUser, error) {
	query := `SELECT id, username, password_hash, created_at FROM admin_users ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin users: %w", err)
	}
	defer rows.Close()

	var users []*domain.AdminUser
	for rows.Next() {
		user, err := scanAdminUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate admin users: %w", err)
	}

	return users, nil
}

// Delete удаляет пользователя админки
func (r *AdminUserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM admin_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete admin user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("admin user %s: %w", id, repository.ErrNotFound)
	}

	return nil
}

// scanAdminUser читает одного пользователя из строки результата
func scanAdminUser(row pgx.Row) (*domain.AdminUser, error) {
	var user domain.AdminUser

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &user, nil
}
