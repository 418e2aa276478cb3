package service

import (
	"context"
	"time"

	"BusTicketPlatform/internal/domain"
	"BusTicketPlatform/internal/repository"
	"BusTicketPlatform/pkg/errors"
	"BusTicketPlatform/pkg/logger"
	"BusTicketPlatform/pkg/metrics"
)

// AuditQuery параметры выборки журнала аудита с границы HTTP.
// From/To — сырые строки запроса: непарсибельные значения трактуются как
// отсутствие фильтра, а не как ошибка, чтобы просмотр журнала оставался
// устойчивым к кривому вводу.
type AuditQuery struct {
	Actor string
	Type  string
	From  string
	To    string
}

// AuditService журнал аудита привилегированных мутаций
type AuditService interface {
	// Emit дописывает событие и возвращает его с присвоенными ID и меткой
	// времени. Строгий режим: отказ записи — отказ вызвавшей мутации.
	Emit(ctx context.Context, event *domain.AuditEvent) (*domain.AuditEvent, error)
	// Query возвращает события по конъюнкции заданных фильтров в порядке записи
	Query(ctx context.Context, query AuditQuery) ([]*domain.AuditEvent, error)
}

// auditService реализация AuditService поверх репозитория журнала
type auditService struct {
	repo    repository.AuditRepository
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewAuditService создает новый сервис аудита
func NewAuditService(repo repository.AuditRepository, log logger.Logger, m *metrics.Metrics) AuditService {
	return &auditService{
		repo:    repo,
		logger:  log,
		metrics: m,
	}
}

// Emit дописывает событие аудита. Запись обязана завершиться до ответа на
// вызвавшую мутацию; при отказе мутация считается неуспешной.
func (s *auditService) Emit(ctx context.Context, event *domain.AuditEvent) (*domain.AuditEvent, error) {
	stored, err := s.repo.Append(ctx, event)
	if err != nil {
		s.logger.Error("failed to append audit event",
			logger.String("actor", event.Actor),
			logger.String("type", string(event.Type)),
			logger.Error(err))
		return nil, errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	s.metrics.AuditEventsEmitted.WithLabelValues(string(stored.Type)).Inc()
	s.logger.Info("audit event emitted",
		logger.Int64("id", stored.ID),
		logger.String("actor", stored.Actor),
		logger.String("type", string(stored.Type)))

	return stored, nil
}

// Query возвращает события журнала по заданным фильтрам
func (s *auditService) Query(ctx context.Context, query AuditQuery) ([]*domain.AuditEvent, error) {
	filter := repository.AuditFilter{
		Actor: query.Actor,
		Type:  domain.AuditEventType(query.Type),
		From:  parseInstant(query.From),
		To:    parseInstant(query.To),
	}

	events, err := s.repo.Query(ctx, filter)
	if err != nil {
		s.logger.Error("failed to query audit events", logger.Error(err))
		return nil, errors.Wrap(err, errors.ErrInternal, "internal error")
	}

	return events, nil
}

// parseInstant разбирает временную границу фильтра.
// Непарсибельное значение — отсутствие фильтра, не ошибка.
func parseInstant(value string) *time.Time {
	if value == "" {
		return nil
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed
		}
	}
	return nil
}
