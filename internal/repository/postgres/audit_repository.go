package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"BusTicketPlatform/internal/domain"
	"BusTicketPlatform/internal/repository"
)

// AuditRepository реализация журнала аудита для PostgreSQL.
// Монотонность ID делегирована BIGSERIAL: присвоение порядка выполняет сама
// база, конкурентные вставки не требуют координации на стороне приложения.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository создает новый экземпляр AuditRepository
func NewAuditRepository(pool *pgxpool.Pool) repository.AuditRepository {
	return &AuditRepository{pool: pool}
}

// Append дописывает событие в журнал и возвращает его с присвоенными ID и меткой времени.
// Метку времени ставит clock_timestamp(), и она не координируется с порядком
// выдачи BIGSERIAL: при конкурентных вставках выборка по id может показать
// локально убывающие метки. Авторитетный порядок журнала — id; метка времени
// информационная.
func (r *AuditRepository) Append(ctx context.Context, event *domain.AuditEvent) (*domain.AuditEvent, error) {
	changes, err := json.Marshal(event.Changes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal changes: %w", err)
	}

	query := `INSERT INTO audit_events (timestamp, actor, type, ride_id, description, changes)
		VALUES (clock_timestamp(), $1, $2, $3, $4, $5)
		RETURNING id, timestamp`

	stored := *event
	err = r.pool.QueryRow(ctx, query,
		event.Actor,
		string(event.Type),
		nullableString(event.RideID),
		event.Description,
		changes,
	).Scan(&stored.ID, &stored.Timestamp)

	if err != nil {
		return nil, fmt.Errorf("failed to append audit event: %w", err)
	}

	return &stored, nil
}

// Query возвращает события журнала, удовлетворяющие всем заданным фильтрам, в порядке записи
func (r *AuditRepository) Query(ctx context.Context, filter repository.AuditFilter) ([]*domain.AuditEvent, error) {
	query := `SELECT id, timestamp, actor, type, ride_id, description, changes FROM audit_events`

	var conditions []string
	var args []interface{}

	if filter.Actor != "" {
		args = append(args, filter.Actor)
		conditions = append(conditions, fmt.Sprintf("actor = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("timestamp <= $%d", len(args)))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		event, err := scanAuditEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}

	return events, nil
}

// scanAuditEvent читает одно событие из строки результата
func scanAuditEvent(row pgx.Row) (*domain.AuditEvent, error) {
	var event domain.AuditEvent
	var eventType string
	var rideID *string
	var changes []byte

	err := row.Scan(
		&event.ID,
		&event.Timestamp,
		&event.Actor,
		&eventType,
		&rideID,
		&event.Description,
		&changes,
	)
	if err != nil {
		return nil, err
	}

	event.Type = domain.AuditEventType(eventType)
	if rideID != nil {
		event.RideID = *rideID
	}
	if len(changes) > 0 {
		if err := json.Unmarshal(changes, &event.Changes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal changes: %w", err)
		}
	}

	return &event, nil
}

// nullableString возвращает nil для пустой строки, чтобы хранить NULL вместо ""
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
