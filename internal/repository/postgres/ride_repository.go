package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"BusTicketPlatform/internal/domain"
	"BusTicketPlatform/internal/repository"
)

// RideRepository реализация репозитория рейсов для PostgreSQL
type RideRepository struct {
	pool *pgxpool.Pool
}

// NewRideRepository создает новый экземпляр RideRepository
func NewRideRepository(pool *pgxpool.Pool) repository.RideRepository {
	return &RideRepository{pool: pool}
}

// Create сохраняет новый рейс в базе данных
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	stops, err := json.Marshal(ride.IntermediateStops)
	if err != nil {
		return fmt.Errorf("failed to marshal intermediate stops: %w", err)
	}

	query := `INSERT INTO rides (id, line_name, origin_stop_id, destination_stop_id, departure_time, arrival_time, intermediate_stops, archived, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.pool.Exec(ctx, query,
		ride.ID,
		ride.LineName,
		ride.OriginStopID,
		ride.DestinationStopID,
		ride.DepartureTime,
		ride.ArrivalTime,
		stops,
		ride.Archived,
		ride.Price,
		ride.CreatedAt,
		ride.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create ride: %w", err)
	}

	return nil
}

// FindByID возвращает рейс по его ID
func (r *RideRepository) FindByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT id, line_name, origin_stop_id, destination_stop_id, departure_time, arrival_time, intermediate_stops, archived, price, created_at, updated_at
		FROM rides WHERE id = $1`

	ride, err := scanRide(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ride %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get ride by id: %w", err)
	}

	return ride, nil
}

// List возвращает все рейсы в порядке создания
func (r *RideRepository) List(ctx context.Context) ([]*domain.Ride, error) {
	query := `SELECT id, line_name, origin_stop_id, destination_stop_id, departure_time, arrival_time, intermediate_stops, archived, price, created_at, updated_at
		FROM rides ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rides: %w", err)
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ride: %w", err)
		}
		rides = append(rides, ride)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rides: %w", err)
	}

	return rides, nil
}

// Update обновляет существующий рейс
func (r *RideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	stops, err := json.Marshal(ride.IntermediateStops)
	if err != nil {
		return fmt.Errorf("failed to marshal intermediate stops: %w", err)
	}

	query := `UPDATE rides SET
		line_name = $2,
		origin_stop_id = $3,
		destination_stop_id = $4,
		departure_time = $5,
		arrival_time = $6,
		intermediate_stops = $7,
		archived = $8,
		price = $9,
		updated_at = $10
	WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		ride.ID,
		ride.LineName,
		ride.OriginStopID,
		ride.DestinationStopID,
		ride.DepartureTime,
		ride.ArrivalTime,
		stops,
		ride.Archived,
		ride.Price,
		ride.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to update ride: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("ride not found: %s", ride.ID)
	}

	return nil
}

// scanRide читает один рейс из строки результата
func scanRide(row pgx.Row) (*domain.Ride, error) {
	var ride domain.Ride
	var stops []byte

	err := row.Scan(
		&ride.ID,
		&ride.LineName,
		&ride.OriginStopID,
		&ride.DestinationStopID,
		&ride.DepartureTime,
		&ride.ArrivalTime,
		&stops,
		&ride.Archived,
		&ride.Price,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(stops) > 0 {
		if err := json.Unmarshal(stops, &ride.IntermediateStops); err != nil {
			return nil, fmt.Errorf("failed to unmarshal intermediate stops: %w", err)
		}
	}

	return &ride, nil
}
