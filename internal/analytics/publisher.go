package analytics

import (
	"context"
	"encoding/json"
	"time"

	"BusTicketPlatform/pkg/logger"
	"BusTicketPlatform/pkg/metrics"
	"BusTicketPlatform/pkg/rabbitmq"
)

// Event аналитическое событие. Телеметрия, не аудит: доставка не гарантируется.
type Event struct {
	Name      string                 `json:"name"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Publisher интерфейс отправки аналитических событий.
// Контракт противоположен журналу аудита: Publish никогда не блокирует
// вызывающий запрос и никогда не возвращает ошибку — сбой доставки только
// логируется.
type Publisher interface {
	Publish(event Event)
}

// RabbitMQPublisher отправляет события в RabbitMQ отсоединенной горутиной
type RabbitMQPublisher struct {
	producer *rabbitmq.Producer
	logger   logger.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration
}

// NewRabbitMQPublisher создает нового издателя аналитики
func NewRabbitMQPublisher(producer *rabbitmq.Producer, log logger.Logger, m *metrics.Metrics) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		producer: producer,
		logger:   log,
		metrics:  m,
		timeout:  5 * time.Second,
	}
}

// Publish отправляет событие в фоне и сразу возвращает управление
func (p *RabbitMQPublisher) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		body, err := json.Marshal(event)
		if err != nil {
			p.logger.Warn("failed to marshal analytics event",
				logger.String("event", event.Name),
				logger.Error(err))
			p.metrics.AnalyticsPublished.WithLabelValues("error").Inc()
			return
		}

		if err := p.producer.Publish(ctx, body); err != nil {
			p.logger.Warn("failed to publish analytics event",
				logger.String("event", event.Name),
				logger.Error(err))
			p.metrics.AnalyticsPublished.WithLabelValues("error").Inc()
			return
		}

		p.metrics.AnalyticsPublished.WithLabelValues("ok").Inc()
	}()
}

// NoopPublisher издатель-заглушка для окружений без брокера
type NoopPublisher struct{}

// Publish ничего не делает
func (NoopPublisher) Publish(event Event) {}
