package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BusTicketPlatform/internal/token"
)

func newSessionRequest(t *testing.T, tokens *token.Manager, subject string) *http.Request {
	t.Helper()
	tokenString, err := tokens.Create(subject)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rides", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: tokenString})
	return req
}

func TestRequireSession_ValidToken(t *testing.T) {
	tokens := token.NewManager("test-secret", time.Hour)

	var gotActor string
	handler := RequireSession(tokens, "session")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newSessionRequest(t, tokens, "dispatcher"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dispatcher", gotActor)
}

func TestRequireSession_Rejections(t *testing.T) {
	tokens := token.NewManager("test-secret", time.Hour)
	handler := RequireSession(tokens, "session")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	tests := []struct {
		name    string
		request func(t *testing.T) *http.Request
	}{
		{"missing cookie", func(t *testing.T) *http.Request {
			return httptest.NewRequest(http.MethodGet, "/api/v1/rides", nil)
		}},
		{"garbage token", func(t *testing.T) *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/rides", nil)
			req.AddCookie(&http.Cookie{Name: "session", Value: "not-a-token"})
			return req
		}},
		{"wrong secret", func(t *testing.T) *http.Request {
			other := token.NewManager("other-secret", time.Hour)
			return newSessionRequest(t, other, "dispatcher")
		}},
		{"expired token", func(t *testing.T) *http.Request {
			past := func() time.Time { return time.Now().Add(-2 * time.Hour) }
			expired := token.NewManagerWithClock("test-secret", time.Hour, past)
			return newSessionRequest(t, expired, "dispatcher")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, tt.request(t))

			// Единообразный отказ: статус и тело не различают причину
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"code":"UNAUTHORIZED","message":"unauthorized"}`, rec.Body.String())
		})
	}
}

func TestOverlayFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rides", nil)
	assert.Nil(t, OverlayFromRequest(req))

	req.AddCookie(&http.Cookie{Name: OverlayCookieName, Value: "ride-1,ride-2, ride-3 ,"})
	overlay := OverlayFromRequest(req)
	assert.Len(t, overlay, 3)
	assert.Contains(t, overlay, "ride-1")
	assert.Contains(t, overlay, "ride-3")
}
