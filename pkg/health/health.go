package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Probe проверка одной зависимости сервиса
type Probe func(ctx context.Context) error

// HealthChecker интерфейс для проверки здоровья сервиса
type HealthChecker interface {
	Check(ctx context.Context) *HealthStatus
}

// HealthStatus представляет статус здоровья сервиса
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]Status `json:"services,omitempty"`
	Version   string            `json:"version,omitempty"`
}

// Status представляет статус одной зависимости
type Status struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

// Checker реализация HealthChecker с набором проб зависимостей
type Checker struct {
	version string
	probes  map[string]Probe
}

// NewChecker создает новый Checker
func NewChecker(version string) *Checker {
	return &Checker{
		version: version,
		probes:  make(map[string]Probe),
	}
}

// Register регистрирует пробу зависимости под заданным именем
func (c *Checker) Register(name string, probe Probe) {
	c.probes[name] = probe
}

// Check проверяет здоровье сервиса и всех зарегистрированных зависимостей
func (c *Checker) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   c.version,
	}

	if len(c.probes) == 0 {
		return status
	}

	status.Services = make(map[string]Status, len(c.probes))
	for name, probe := range c.probes {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := probe(probeCtx)
		cancel()

		if err != nil {
			status.Status = "degraded"
			status.Services[name] = Status{Status: "unhealthy", Details: err.Error()}
		} else {
			status.Services[name] = Status{Status: "healthy"}
		}
	}

	return status
}

// Handler создает HTTP обработчик для health check эндпоинта
func Handler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := checker.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if status.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	}
}
