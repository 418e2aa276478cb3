package handler

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"BusTicketPlatform/internal/middleware"
	"BusTicketPlatform/internal/service"
	"BusTicketPlatform/pkg/errors"
	"BusTicketPlatform/pkg/logger"
)

// HTTPHandler обрабатывает HTTP запросы платформы
type HTTPHandler struct {
	logger     logger.Logger
	auth       service.AuthService
	rides      service.RideService
	tickets    service.TicketService
	audit      service.AuditService
	sessions   func(http.Handler) http.Handler
	cookieName string
	sessionTTL time.Duration
}

// NewHTTPHandler создает новый HTTP обработчик
func NewHTTPHandler(
	log logger.Logger,
	auth service.AuthService,
	rides service.RideService,
	tickets service.TicketService,
	audit service.AuditService,
	sessions func(http.Handler) http.Handler,
	cookieName string,
	sessionTTL time.Duration,
) *HTTPHandler {
	return &HTTPHandler{
		logger:     log,
		auth:       auth,
		rides:      rides,
		tickets:    tickets,
		audit:      audit,
		sessions:   sessions,
		cookieName: cookieName,
		sessionTTL: sessionTTL,
	}
}

// RegisterRoutes регистрирует HTTP маршруты
func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/auth/login", h.handleLogin)
	mux.HandleFunc("/api/v1/auth/logout", h.handleLogout)

	mux.HandleFunc("/api/v1/rides", h.handleRides)
	mux.HandleFunc("/api/v1/rides/", h.handleRideByID)

	mux.HandleFunc("/api/v1/tickets", h.handleTickets)

	mux.Handle("/api/v1/driver/rides", h.protected(h.driverRides))
	mux.Handle("/api/v1/driver/tickets", h.protected(h.driverTickets))
	mux.Handle("/api/v1/driver/tickets/validate", h.protected(h.validateTicket))

	mux.Handle("/api/v1/audit", h.protected(h.queryAudit))

	mux.Handle("/api/v1/admins", h.protected(h.handleAdmins))
	mux.Handle("/api/v1/admins/", h.protected(h.handleAdminByID))
}

// protected оборачивает обработчик проверкой сессионного cookie
func (h *HTTPHandler) protected(fn http.HandlerFunc) http.Handler {
	return h.sessions(fn)
}

// handleLogin обрабатывает POST /api/v1/auth/login
func (h *HTTPHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteHTTP(w, errors.New(errors.ErrValidation, "invalid JSON body"))
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password, clientIP(r))
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLogout обрабатывает POST /api/v1/auth/logout.
// На сервере ничего не инвалидируется: стирается только клиентская копия
// токена, сам токен остается валидным до истечения TTL.
func (h *HTTPHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRides обрабатывает запросы к /api/v1/rides
func (h *HTTPHandler) handleRides(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listRides(w, r)
	case http.MethodPost:
		h.protected(h.createRide).ServeHTTP(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRideByID обрабатывает запросы к /api/v1/rides/{id}
func (h *HTTPHandler) handleRideByID(w http.ResponseWriter, r *http.Request) {
	id, tail := extractRideID(r.URL.Path)
	if id == "" {
		http.Error(w, "Invalid ride ID", http.StatusBadRequest)
		return
	}

	if tail == "duration" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.rideDuration(w, r, id)
		return
	}
	if tail != "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getRide(w, r, id)
	case http.MethodPut:
		h.protected(func(w http.ResponseWriter, r *http.Request) {
			h.updateRide(w, r, id)
		}).ServeHTTP(w, r)
	case http.MethodPost:
		action := r.URL.Query().Get("action")
		if action != "archive" && action != "unarchive" {
			http.Error(w, "Invalid action. Use ?action=archive or ?action=unarchive", http.StatusBadRequest)
			return
		}
		h.protected(func(w http.ResponseWriter, r *http.Request) {
			h.setArchived(w, r, id, action == "archive")
		}).ServeHTTP(w, r)
	case http.MethodDelete:
		h.protected(func(w http.ResponseWriter, r *http.Request) {
			h.deleteRide(w, r, id)
		}).ServeHTTP(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// listRides возвращает публичный список рейсов.
// Персистентная архивация и клиентский оверлей из cookie применяются оба.
func (h *HTTPHandler) listRides(w http.ResponseWriter, r *http.Request) {
	rides, err := h.rides.VisibleRides(r.Context(), middleware.OverlayFromRequest(r))
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rides)
}

// createRide создает новый рейс
func (h *HTTPHandler) createRide(w http.ResponseWriter, r *http.Request) {
	var input service.RideInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		errors.WriteHTTP(w, errors.New(errors.ErrValidation, "invalid JSON body"))
		return
	}

	ride, err := h.rides.CreateRide(r.Context(), middleware.ActorFromContext(r.Context()), input)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ride)
}

// getRide возвращает рейс по ID
func (h *HTTPHandler) getRide(w http.ResponseWriter, r *http.Request, id string) {
	ride, err := h.rides.GetRide(r.Context(), id)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

// updateRide обновляет рейс
func (h *HTTPHandler) updateRide(w http.ResponseWriter, r *http.Request, id string) {
	var input service.RideInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		errors.WriteHTTP(w, errors.New(errors.ErrValidation, "invalid JSON body"))
		return
	}

	ride, err := h.rides.UpdateRide(r.Context(), middleware.ActorFromContext(r.Context()), id, input)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

// setArchived переключает персистентный флаг архивации рейса
func (h *HTTPHandler) setArchived(w http.ResponseWriter, r *http.Request, id string, archived bool) {
	ride, err := h.rides.SetArchived(r.Context(), middleware.ActorFromContext(r.Context()), id, archived)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

// deleteRide убирает рейс из всех списков
func (h *HTTPHandler) deleteRide(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.rides.DeleteRide(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// rideDuration возвращает плановую длительность рейса
func (h *HTTPHandler) rideDuration(w http.ResponseWriter, r *http.Request, id string) {
	duration, err := h.rides.RideDuration(r.Context(), id)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ride_id":          id,
		"duration_minutes": int(duration.Minutes()),
	})
}

// handleTickets обрабатывает запросы к /api/v1/tickets
func (h *HTTPHandler) handleTickets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var input service.BookingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		errors.WriteHTTP(w, errors.New(errors.ErrValidation, "invalid JSON body"))
		return
	}

	ticket, err := h.tickets.BookTicket(r.Context(), input)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

// driverRides возвращает активный список рейсов водителя
func (h *HTTPHandler) driverRides(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rides, err := h.rides.DriverRides(r.Context(), middleware.OverlayFromRequest(r))
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rides)
}

// driverTickets возвращает билеты для контроля: предстоящие по умолчанию,
// либо билеты на точную дату при ?date=YYYY-MM-DD
func (h *HTTPHandler) driverTickets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var err error
	var tickets interface{}
	if date := r.URL.Query().Get("date"); date != "" {
		tickets, err = h.tickets.TicketsOnDate(r.Context(), date)
	} else {
		tickets, err = h.tickets.UpcomingTickets(r.Context())
	}
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

// validateTicket обрабатывает POST /api/v1/driver/tickets/validate
func (h *HTTPHandler) validateTicket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		TicketID  string `json:"ticket_id"`
		Validated bool   `json:"validated"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteHTTP(w, errors.New(errors.ErrValidation, "invalid JSON body"))
		return
	}

	ticket, err := h.tickets.SetValidated(r.Context(), req.TicketID, req.Validated)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// queryAudit обрабатывает GET /api/v1/audit
func (h *HTTPHandler) queryAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	events, err := h.audit.Query(r.Context(), service.AuditQuery{
		Actor: query.Get("actor"),
		Type:  query.Get("type"),
		From:  query.Get("from"),
		To:    query.Get("to"),
	})
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// handleAdmins обрабатывает запросы к /api/v1/admins
func (h *HTTPHandler) handleAdmins(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		admins, err := h.auth.ListAdmins(r.Context())
		if err != nil {
			errors.WriteHTTP(w, err)
			return
		}
		writeJSON(w, http.StatusOK, admins)
	case http.MethodPost:
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errors.WriteHTTP(w, errors.New(errors.ErrValidation, "invalid JSON body"))
			return
		}

		user, err := h.auth.CreateAdmin(r.Context(), middleware.ActorFromContext(r.Context()), req.Username, req.Password)
		if err != nil {
			errors.WriteHTTP(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAdminByID обрабатывает запросы к /api/v1/admins/{id}
func (h *HTTPHandler) handleAdminByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/admins/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Invalid admin ID", http.StatusBadRequest)
		return
	}

	if err := h.auth.DeleteAdmin(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// extractRideID извлекает ID рейса и остаток пути из URL.
// URL формат: /api/v1/rides/{id} или /api/v1/rides/{id}/duration
func extractRideID(path string) (id, tail string) {
	rest := strings.TrimPrefix(path, "/api/v1/rides/")
	if rest == path {
		return "", ""
	}

	parts := strings.SplitN(rest, "/", 2)
	id = parts[0]
	if len(parts) == 2 {
		tail = parts[1]
	}
	return id, tail
}

// clientIP возвращает IP клиента для ключа ограничителя частоты логинов
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if comma := strings.Index(forwarded, ","); comma != -1 {
			return strings.TrimSpace(forwarded[:comma])
		}
		return strings.TrimSpace(forwarded)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeJSON записывает JSON ответ
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
