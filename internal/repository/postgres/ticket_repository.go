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

// TicketRepository реализация репозитория билетов для PostgreSQL
type TicketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository создает новый экземпляр TicketRepository
func NewTicketRepository(pool *pgxpool.Pool) repository.TicketRepository {
	return &TicketRepository{pool: pool}
}

// Create сохраняет новый билет в базе данных
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	query := `INSERT INTO tickets (id, ride_id, departure_date, departure_time, origin_stop_id, destination_stop_id, passenger_count, ticket_number, validated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		ticket.ID,
		ticket.RideID,
		ticket.DepartureDate,
		ticket.DepartureTime,
		ticket.OriginStopID,
		ticket.DestinationStopID,
		ticket.PassengerCount,
		ticket.TicketNumber,
		ticket.Validated,
		ticket.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	return nil
}

// FindByID возвращает билет по его ID
func (r *TicketRepository) FindByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := ticketSelect + ` WHERE id = $1`

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ticket %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get ticket by id: %w", err)
	}

	return ticket, nil
}

// List возвращает все билеты, упорядоченные по дате и времени отправления
func (r *TicketRepository) List(ctx context.Context) ([]*domain.Ticket, error) {
	query := ticketSelect + ` ORDER BY departure_date, departure_time, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}

	return tickets, nil
}

// SetValidated безусловно выставляет флаг валидации билета.
// Одиночный UPDATE: при гонке двух водителей побеждает последняя запись.
func (r *TicketRepository) SetValidated(ctx context.Context, id string, validated bool) (*domain.Ticket, error) {
	query := `UPDATE tickets SET validated = $2 WHERE id = $1
		RETURNING id, ride_id, departure_date, departure_time, origin_stop_id, destination_stop_id, passenger_count, ticket_number, validated, created_at`

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id, validated))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ticket %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to set ticket validated: %w", err)
	}

	return ticket, nil
}

const ticketSelect = `SELECT id, ride_id, departure_date, departure_time, origin_stop_id, destination_stop_id, passenger_count, ticket_number, validated, created_at
	FROM tickets`

// scanTicket читает один билет из строки результата
func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket

	err := row.Scan(
		&ticket.ID,
		&ticket.RideID,
		&ticket.DepartureDate,
		&ticket.DepartureTime,
		&ticket.OriginStopID,
		&ticket.DestinationStopID,
		&ticket.PassengerCount,
		&ticket.TicketNumber,
		&ticket.Validated,
		&ticket.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &ticket, nil
}
