package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"BusTicketPlatform/internal/analytics"
	"BusTicketPlatform/internal/domain"
	"BusTicketPlatform/internal/repository"
	"BusTicketPlatform/internal/visibility"
	"BusTicketPlatform/pkg/errors"
	"BusTicketPlatform/pkg/logger"
	"BusTicketPlatform/pkg/metrics"
	"BusTicketPlatform/pkg/validation"
)

// BookingInput данные бронирования билета
type BookingInput struct {
	RideID            string `json:"ride_id"`
	DepartureDate     string `json:"departure_date"` // YYYY-MM-DD
	OriginStopID      string `json:"origin_stop_id"`
	DestinationStopID string `json:"destination_stop_id"`
	PassengerCount    int    `json:"passenger_count"`
}

// TicketService операции над билетами: бронирование, списки водителя,
// переключение отметки валидации.
type TicketService interface {
	BookTicket(ctx context.Context, input BookingInput) (*domain.Ticket, error)
	// UpcomingTickets возвращает билеты, еще не отправившиеся относительно
	// текущего момента в операционной зоне.
	UpcomingTickets(ctx context.Context) ([]*domain.Ticket, error)
	// TicketsOnDate возвращает билеты с точным совпадением календарной даты
	TicketsOnDate(ctx context.Context, date string) ([]*domain.Ticket, error)
	// SetValidated безусловно выставляет отметку валидации в обе стороны.
	// Переход намеренно НЕ записывается в журнал аудита, в отличие от
	// мутаций рейсов. Гонки разрешаются последней записью.
	SetValidated(ctx context.Context, ticketID string, validated bool) (*domain.Ticket, error)
}

// ticketService реализация TicketService
type ticketService struct {
	tickets   repository.TicketRepository
	rides     repository.RideRepository
	analytics analytics.Publisher
	validator *validation.Validator
	logger    logger.Logger
	metrics   *metrics.Metrics
	location  *time.Location
	now       func() time.Time
}

// NewTicketService создает новый сервис билетов
func NewTicketService(
	tickets repository.TicketRepository,
	rides repository.RideRepository,
	publisher analytics.Publisher,
	log logger.Logger,
	m *metrics.Metrics,
	location *time.Location,
) TicketService {
	return &ticketService{
		tickets:   tickets,
		rides:     rides,
		analytics: publisher,
		validator: validation.NewValidator(),
		logger:    log,
		metrics:   m,
		location:  location,
		now:       time.Now,
	}
}

// BookTicket бронирует билет на рейс на конкретную дату.
// Время отправления денормализуется из рейса в момент бронирования и
// дальше живет в билете независимо от изменений рейса.
func (s *ticketService) BookTicket(ctx context.Context, input BookingInput) (*domain.Ticket, error) {
	err := s.validator.ValidateRequiredFields(map[string]string{
		"ride":           input.RideID,
		"departure date": input.DepartureDate,
	})
	if err != nil {
		return nil, errors.New(errors.ErrValidation, err.Error())
	}
	if err := s.validator.ValidateDate(input.DepartureDate); err != nil {
		return nil, errors.New(errors.ErrValidation, err.Error())
	}
	if err := s.validator.ValidatePassengerCount(input.PassengerCount); err != nil {
		return nil, errors.New(errors.ErrValidation, err.Error())
	}

	ride, err := s.rides.FindByID(ctx, input.RideID)
	if err != nil {
		return nil, lookupError(err, "ride not found")
	}

	originStop := input.OriginStopID
	if originStop == "" {
		originStop = ride.OriginStopID
	}
	destinationStop := input.DestinationStopID
	if destinationStop == "" {
		destinationStop = ride.DestinationStopID
	}

	ticket := &domain.Ticket{
		ID:                uuid.New().String(),
		RideID:            ride.ID,
		DepartureDate:     input.DepartureDate,
		DepartureTime:     ride.DepartureTime,
		OriginStopID:      originStop,
		DestinationStopID: destinationStop,
		PassengerCount:    input.PassengerCount,
		TicketNumber:      newTicketNumber(),
		CreatedAt:         s.now().In(s.location),
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		s.logger.Error("failed to create ticket", logger.Error(err))
		return nil, errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	s.analytics.Publish(analytics.Event{
		Name: "ticket.booked",
		Payload: map[string]interface{}{
			"ticket_id": ticket.ID,
			"ride_id":   ticket.RideID,
			"date":      ticket.DepartureDate,
		},
	})

	s.logger.Info("ticket booked",
		logger.String("ticket_id", ticket.ID),
		logger.String("ride_id", ticket.RideID),
		logger.String("date", ticket.DepartureDate))

	return ticket, nil
}

// UpcomingTickets возвращает еще не отправившиеся билеты
func (s *ticketService) UpcomingTickets(ctx context.Context) ([]*domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx)
	if err != nil {
		s.logger.Error("failed to list tickets", logger.Error(err))
		return nil, errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	return visibility.UpcomingTickets(tickets, s.now().In(s.location)), nil
}

// TicketsOnDate возвращает билеты на точную календарную дату
func (s *ticketService) TicketsOnDate(ctx context.Context, date string) ([]*domain.Ticket, error) {
	if err := s.validator.ValidateDate(date); err != nil {
		return nil, errors.New(errors.ErrValidation, err.Error())
	}

	parsed, err := time.ParseInLocation("2006-01-02", date, s.location)
	if err != nil {
		return nil, errors.New(errors.ErrValidation, "date must match YYYY-MM-DD format")
	}

	tickets, err := s.tickets.List(ctx)
	if err != nil {
		s.logger.Error("failed to list tickets", logger.Error(err))
		return nil, errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	return visibility.TicketsOnDate(tickets, parsed), nil
}

// SetValidated переключает отметку валидации билета
func (s *ticketService) SetValidated(ctx context.Context, ticketID string, validated bool) (*domain.Ticket, error) {
	if ticketID == "" {
		return nil, errors.New(errors.ErrValidation, "ticket id is required")
	}

	ticket, err := s.tickets.SetValidated(ctx, ticketID, validated)
	if err != nil {
		s.logger.Error("failed to set ticket validated", logger.Error(err))
		return nil, lookupError(err, "ticket not found")
	}

	s.metrics.TicketValidations.WithLabelValues(fmt.Sprintf("%t", validated)).Inc()
	s.logger.Info("ticket validation toggled",
		logger.String("ticket_id", ticket.ID),
		logger.Bool("validated", ticket.Validated))

	return ticket, nil
}

// newTicketNumber генерирует номер билета для контролера
func newTicketNumber() string {
	return "BT-" + strings.ToUpper(uuid.New().String()[:8])
}
