package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"BusTicketPlatform/internal/analytics"
	"BusTicketPlatform/internal/domain"
	"BusTicketPlatform/internal/repository"
	"BusTicketPlatform/internal/visibility"
	"BusTicketPlatform/pkg/errors"
	"BusTicketPlatform/pkg/logger"
	"BusTicketPlatform/pkg/validation"
)

// RideInput данные для создания или обновления рейса
type RideInput struct {
	LineName          string            `json:"line_name"`
	OriginStopID      string            `json:"origin_stop_id"`
	DestinationStopID string            `json:"destination_stop_id"`
	DepartureTime     string            `json:"departure_time"`
	ArrivalTime       string            `json:"arrival_time"`
	IntermediateStops []domain.RideStop `json:"intermediate_stops,omitempty"`
	Price             *float64          `json:"price,omitempty"`
}

// RideService операции над рейсами расписания.
// Каждая мутация записывается в журнал аудита до ответа вызывающей стороне.
type RideService interface {
	CreateRide(ctx context.Context, actor string, input RideInput) (*domain.Ride, error)
	UpdateRide(ctx context.Context, actor, id string, input RideInput) (*domain.Ride, error)
	SetArchived(ctx context.Context, actor, id string, archived bool) (*domain.Ride, error)
	DeleteRide(ctx context.Context, actor, id string) error
	GetRide(ctx context.Context, id string) (*domain.Ride, error)
	// VisibleRides возвращает рейсы, видимые публике: не заархивированные
	// персистентно и не скрытые клиентским оверлеем.
	VisibleRides(ctx context.Context, overlayIDs map[string]struct{}) ([]*domain.Ride, error)
	// DriverRides дополнительно ограничивает список рейсами, на которые есть
	// хотя бы один предстоящий билет.
	DriverRides(ctx context.Context, overlayIDs map[string]struct{}) ([]*domain.Ride, error)
	RideDuration(ctx context.Context, id string) (time.Duration, error)
}

// rideService реализация RideService
type rideService struct {
	rides     repository.RideRepository
	tickets   repository.TicketRepository
	audit     AuditService
	analytics analytics.Publisher
	validator *validation.Validator
	logger    logger.Logger
	location  *time.Location
	now       func() time.Time
}

// NewRideService создает новый сервис рейсов
func NewRideService(
	rides repository.RideRepository,
	tickets repository.TicketRepository,
	audit AuditService,
	publisher analytics.Publisher,
	log logger.Logger,
	location *time.Location,
) RideService {
	return &rideService{
		rides:     rides,
		tickets:   tickets,
		audit:     audit,
		analytics: publisher,
		validator: validation.NewValidator(),
		logger:    log,
		location:  location,
		now:       time.Now,
	}
}

// validateInput проверяет обязательные поля и форматы времени
func (s *rideService) validateInput(input RideInput) error {
	err := s.validator.ValidateRequiredFields(map[string]string{
		"line name":        input.LineName,
		"origin stop":      input.OriginStopID,
		"destination stop": input.DestinationStopID,
		"departure time":   input.DepartureTime,
		"arrival time":     input.ArrivalTime,
	})
	if err != nil {
		return errors.New(errors.ErrValidation, err.Error())
	}

	if err := s.validator.ValidateTimeOfDay(input.DepartureTime); err != nil {
		return errors.New(errors.ErrValidation, err.Error())
	}
	if err := s.validator.ValidateTimeOfDay(input.ArrivalTime); err != nil {
		return errors.New(errors.ErrValidation, err.Error())
	}
	for _, stop := range input.IntermediateStops {
		if err := s.validator.ValidateTimeOfDay(stop.Time); err != nil {
			return errors.New(errors.ErrValidation, err.Error())
		}
	}

	return nil
}

// CreateRide создает новый рейс и записывает событие ride.created.
// Событие несет новые значения полей как изменения без before.
func (s *rideService) CreateRide(ctx context.Context, actor string, input RideInput) (*domain.Ride, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	now := s.now().In(s.location)
	ride := &domain.Ride{
		ID:                uuid.New().String(),
		LineName:          input.LineName,
		OriginStopID:      input.OriginStopID,
		DestinationStopID: input.DestinationStopID,
		DepartureTime:     input.DepartureTime,
		ArrivalTime:       input.ArrivalTime,
		IntermediateStops: input.IntermediateStops,
		Price:             input.Price,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.rides.Create(ctx, ride); err != nil {
		s.logger.Error("failed to create ride", logger.Error(err))
		return nil, errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	// Аудит обязан завершиться до ответа; его отказ — отказ мутации
	_, err := s.audit.Emit(ctx, &domain.AuditEvent{
		Actor:       actor,
		Type:        domain.AuditRideCreated,
		RideID:      ride.ID,
		Description: fmt.Sprintf("created ride %s", ride.LineName),
		Changes:     createdChanges(ride),
	})
	if err != nil {
		return nil, err
	}

	s.analytics.Publish(analytics.Event{
		Name:    "ride.created",
		Payload: map[string]interface{}{"ride_id": ride.ID, "line_name": ride.LineName},
	})

	s.logger.Info("ride created",
		logger.String("ride_id", ride.ID),
		logger.String("actor", actor))

	return ride, nil
}

// UpdateRide обновляет рейс и записывает событие ride.updated
// с изменениями before/after только для затронутых полей.
func (s *rideService) UpdateRide(ctx context.Context, actor, id string, input RideInput) (*domain.Ride, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.rides.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "ride not found")
	}

	updated := *existing
	updated.LineName = input.LineName
	updated.OriginStopID = input.OriginStopID
	updated.DestinationStopID = input.DestinationStopID
	updated.DepartureTime = input.DepartureTime
	updated.ArrivalTime = input.ArrivalTime
	updated.IntermediateStops = input.IntermediateStops
	updated.Price = input.Price
	updated.UpdatedAt = s.now().In(s.location)

	changes := diffRides(existing, &updated)
	if len(changes) == 0 {
		return existing, nil
	}

	if err := s.rides.Update(ctx, &updated); err != nil {
		s.logger.Error("failed to update ride", logger.Error(err))
		return nil, errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	_, err = s.audit.Emit(ctx, &domain.AuditEvent{
		Actor:       actor,
		Type:        domain.AuditRideUpdated,
		RideID:      updated.ID,
		Description: fmt.Sprintf("updated ride %s", updated.LineName),
		Changes:     changes,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ride updated",
		logger.String("ride_id", updated.ID),
		logger.String("actor", actor),
		logger.Int("changed_fields", len(changes)))

	return &updated, nil
}

// SetArchived выставляет персистентный флаг архивации рейса
func (s *rideService) SetArchived(ctx context.Context, actor, id string, archived bool) (*domain.Ride, error) {
	existing, err := s.rides.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "ride not found")
	}

	if existing.Archived == archived {
		return existing, nil
	}

	updated := *existing
	updated.Archived = archived
	updated.UpdatedAt = s.now().In(s.location)

	if err := s.rides.Update(ctx, &updated); err != nil {
		s.logger.Error("failed to archive ride", logger.Error(err))
		return nil, errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	_, err = s.audit.Emit(ctx, &domain.AuditEvent{
		Actor:       actor,
		Type:        domain.AuditRideUpdated,
		RideID:      updated.ID,
		Description: fmt.Sprintf("set archived=%t on ride %s", archived, updated.LineName),
		Changes: []domain.FieldChange{{
			Field:  "archived",
			Before: strPtr(strconv.FormatBool(existing.Archived)),
			After:  strPtr(strconv.FormatBool(archived)),
		}},
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// DeleteRide убирает рейс из всех списков. Жесткого удаления нет:
// запись архивируется, а в журнал пишется событие ride.deleted.
func (s *rideService) DeleteRide(ctx context.Context, actor, id string) error {
	existing, err := s.rides.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "ride not found")
	}

	updated := *existing
	updated.Archived = true
	updated.UpdatedAt = s.now().In(s.location)

	if err := s.rides.Update(ctx, &updated); err != nil {
		s.logger.Error("failed to delete ride", logger.Error(err))
		return errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	_, err = s.audit.Emit(ctx, &domain.AuditEvent{
		Actor:       actor,
		Type:        domain.AuditRideDeleted,
		RideID:      existing.ID,
		Description: fmt.Sprintf("deleted ride %s", existing.LineName),
		Changes:     deletedChanges(existing),
	})
	return err
}

// GetRide возвращает рейс по ID
func (s *rideService) GetRide(ctx context.Context, id string) (*domain.Ride, error) {
	ride, err := s.rides.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "ride not found")
	}
	return ride, nil
}

// VisibleRides возвращает видимые рейсы для публичного списка
func (s *rideService) VisibleRides(ctx context.Context, overlayIDs map[string]struct{}) ([]*domain.Ride, error) {
	rides, err := s.rides.List(ctx)
	if err != nil {
		s.logger.Error("failed to list rides", logger.Error(err))
		return nil, errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	return visibility.VisibleRides(rides, overlayIDs), nil
}

// DriverRides возвращает активный список рейсов водителя: видимые рейсы,
// на которые есть хотя бы один предстоящий билет относительно текущего момента.
func (s *rideService) DriverRides(ctx context.Context, overlayIDs map[string]struct{}) ([]*domain.Ride, error) {
	rides, err := s.rides.List(ctx)
	if err != nil {
		s.logger.Error("failed to list rides", logger.Error(err))
		return nil, errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	tickets, err := s.tickets.List(ctx)
	if err != nil {
		s.logger.Error("failed to list tickets", logger.Error(err))
		return nil, errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	activeIDs := visibility.RideIDsWithUpcomingTickets(tickets, s.now().In(s.location))

	visible := visibility.VisibleRides(rides, overlayIDs)
	active := make([]*domain.Ride, 0, len(visible))
	for _, ride := range visible {
		if _, ok := activeIDs[ride.ID]; ok {
			active = append(active, ride)
		}
	}

	return active, nil
}

// RideDuration возвращает плановую длительность рейса
func (s *rideService) RideDuration(ctx context.Context, id string) (time.Duration, error) {
	ride, err := s.rides.FindByID(ctx, id)
	if err != nil {
		return 0, lookupError(err, "ride not found")
	}

	duration, err := ride.ScheduledDuration()
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	return duration, nil
}

// createdChanges строит изменения для события создания: только after
func createdChanges(ride *domain.Ride) []domain.FieldChange {
	changes := []domain.FieldChange{
		{Field: "lineName", After: strPtr(ride.LineName)},
		{Field: "originStopId", After: strPtr(ride.OriginStopID)},
		{Field: "destinationStopId", After: strPtr(ride.DestinationStopID)},
		{Field: "departureTime", After: strPtr(ride.DepartureTime)},
		{Field: "arrivalTime", After: strPtr(ride.ArrivalTime)},
	}
	if len(ride.IntermediateStops) > 0 {
		changes = append(changes, domain.FieldChange{
			Field: "intermediateStops", After: strPtr(formatStops(ride.IntermediateStops)),
		})
	}
	if ride.Price != nil {
		changes = append(changes, domain.FieldChange{
			Field: "price", After: strPtr(formatPrice(ride.Price)),
		})
	}
	return changes
}

// deletedChanges строит изменения для события удаления: только before
func deletedChanges(ride *domain.Ride) []domain.FieldChange {
	return []domain.FieldChange{
		{Field: "lineName", Before: strPtr(ride.LineName)},
		{Field: "originStopId", Before: strPtr(ride.OriginStopID)},
		{Field: "destinationStopId", Before: strPtr(ride.DestinationStopID)},
		{Field: "departureTime", Before: strPtr(ride.DepartureTime)},
		{Field: "arrivalTime", Before: strPtr(ride.ArrivalTime)},
	}
}

// diffRides возвращает изменения before/after для затронутых полей
func diffRides(before, after *domain.Ride) []domain.FieldChange {
	var changes []domain.FieldChange

	appendIfChanged := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, domain.FieldChange{
				Field:  field,
				Before: strPtr(oldValue),
				After:  strPtr(newValue),
			})
		}
	}

	appendIfChanged("lineName", before.LineName, after.LineName)
	appendIfChanged("originStopId", before.OriginStopID, after.OriginStopID)
	appendIfChanged("destinationStopId", before.DestinationStopID, after.DestinationStopID)
	appendIfChanged("departureTime", before.DepartureTime, after.DepartureTime)
	appendIfChanged("arrivalTime", before.ArrivalTime, after.ArrivalTime)
	appendIfChanged("intermediateStops", formatStops(before.IntermediateStops), formatStops(after.IntermediateStops))
	appendIfChanged("price", formatPrice(before.Price), formatPrice(after.Price))

	return changes
}

// formatStops сериализует промежуточные остановки для записи в журнал
func formatStops(stops []domain.RideStop) string {
	if len(stops) == 0 {
		return ""
	}
	parts := make([]string, len(stops))
	for i, stop := range stops {
		parts[i] = stop.StopID + "@" + stop.Time
	}
	return strings.Join(parts, ",")
}

// formatPrice сериализует цену для записи в журнал
func formatPrice(price *float64) string {
	if price == nil {
		return ""
	}
	return strconv.FormatFloat(*price, 'f', 2, 64)
}

// strPtr возвращает указатель на строку
func strPtr(s string) *string {
	return &s
}
