package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_NoProbes(t *testing.T) {
	checker := NewChecker("1.0.0")

	status := checker.Check(context.Background())

	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "1.0.0", status.Version)
	assert.Empty(t, status.Services)
}

func TestChecker_AllProbesHealthy(t *testing.T) {
	checker := NewChecker("1.0.0")
	checker.Register("postgres", func(ctx context.Context) error { return nil })
	checker.Register("redis", func(ctx context.Context) error { return nil })

	status := checker.Check(context.Background())

	assert.Equal(t, "healthy", status.Status)
	assert.Len(t, status.Services, 2)
	assert.Equal(t, "healthy", status.Services["postgres"].Status)
}

func TestChecker_FailingProbeDegradesStatus(t *testing.T) {
	checker := NewChecker("1.0.0")
	checker.Register("postgres", func(ctx context.Context) error { return nil })
	checker.Register("rabbitmq", func(ctx context.Context) error {
		return errors.New("connection refused")
	})

	status := checker.Check(context.Background())

	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "unhealthy", status.Services["rabbitmq"].Status)
	assert.Equal(t, "healthy", status.Services["postgres"].Status)
}

func TestHandler(t *testing.T) {
	checker := NewChecker("1.0.0")

	rec := httptest.NewRecorder()
	Handler(checker).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestHandler_DegradedReturns503(t *testing.T) {
	checker := NewChecker("1.0.0")
	checker.Register("postgres", func(ctx context.Context) error {
		return errors.New("down")
	})

	rec := httptest.NewRecorder()
	Handler(checker).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
