package domain

import (
	"fmt"
	"time"
)

// AuditEventType тип события аудита
type AuditEventType string

// Типы событий аудита для привилегированных мутаций
const (
	AuditRideCreated AuditEventType = "ride.created"
	AuditRideUpdated AuditEventType = "ride.updated"
	AuditRideDeleted AuditEventType = "ride.deleted"
	AuditUserCreated AuditEventType = "user.created"
	AuditUserDeleted AuditEventType = "user.deleted"
)

// FieldChange одно изменение поля в событии аудита.
// Before равен nil для созданных записей, After — для удаленных.
type FieldChange struct {
	Field  string  `json:"field"`
	Before *string `json:"before,omitempty"`
	After  *string `json:"after,omitempty"`
}

// AuditEvent неизменяемая запись одной привилегированной мутации.
// ID строго возрастает в порядке записи, Timestamp не убывает по журналу.
type AuditEvent struct {
	ID          int64          `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	Actor       string         `json:"actor"`
	Type        AuditEventType `json:"type"`
	RideID      string         `json:"ride_id,omitempty"`
	Description string         `json:"description"`
	Changes     []FieldChange  `json:"changes"`
}

// RideStop промежуточная остановка рейса с плановым временем
type RideStop struct {
	StopID string `json:"stop_id"`
	Time   string `json:"time"` // HH:MM
}

// Ride повторяющийся шаблон рейса расписания.
// Не привязан к календарной дате; архивация — флаг, а не удаление.
type Ride struct {
	ID                string     `json:"id"`
	LineName          string     `json:"line_name"`
	OriginStopID      string     `json:"origin_stop_id"`
	DestinationStopID string     `json:"destination_stop_id"`
	DepartureTime     string     `json:"departure_time"` // HH:MM
	ArrivalTime       string     `json:"arrival_time"`   // HH:MM
	IntermediateStops []RideStop `json:"intermediate_stops,omitempty"`
	Archived          bool       `json:"archived"`
	Price             *float64   `json:"price,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ScheduledDuration возвращает плановую длительность рейса по временам
// отправления и прибытия. Прибытие раньше отправления означает переход
// через полночь и переносится на следующие сутки.
func (r *Ride) ScheduledDuration() (time.Duration, error) {
	departure, err := time.Parse("15:04", r.DepartureTime)
	if err != nil {
		return 0, fmt.Errorf("invalid departure time %q: %w", r.DepartureTime, err)
	}
	arrival, err := time.Parse("15:04", r.ArrivalTime)
	if err != nil {
		return 0, fmt.Errorf("invalid arrival time %q: %w", r.ArrivalTime, err)
	}

	duration := arrival.Sub(departure)
	if duration < 0 {
		duration += 24 * time.Hour
	}
	return duration, nil
}

// Ticket бронирование пассажира: привязывает шаблон рейса к одной
// календарной дате. DepartureTime — денормализованная копия планового
// времени рейса на момент бронирования.
type Ticket struct {
	ID                string    `json:"id"`
	RideID            string    `json:"ride_id"`
	DepartureDate     string    `json:"departure_date"` // YYYY-MM-DD
	DepartureTime     string    `json:"departure_time"` // HH:MM
	OriginStopID      string    `json:"origin_stop_id"`
	DestinationStopID string    `json:"destination_stop_id"`
	PassengerCount    int       `json:"passenger_count"`
	TicketNumber      string    `json:"ticket_number"`
	Validated         bool      `json:"validated"`
	CreatedAt         time.Time `json:"created_at"`
}

// AdminUser пользователь административной панели
type AdminUser struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session данные проверенного сессионного токена
type Session struct {
	Subject   string    `json:"subject"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
