package middleware

import (
	"context"
	"net/http"
	"strings"

	"BusTicketPlatform/internal/token"
	"BusTicketPlatform/pkg/errors"
)

// contextKey тип ключей контекста запроса
type contextKey string

const actorKey contextKey = "actor"

// OverlayCookieName cookie клиентского оверлея архивации: список ID рейсов
// через запятую, которые этот клиент скрывает из своих списков.
const OverlayCookieName = "hidden_rides"

// RequireSession проверяет сессионный cookie запроса.
// Отсутствующий, просроченный или подделанный токен дает единообразный 401
// без различения причины. Субъект сессии кладется в контекст запроса.
func RequireSession(tokens token.Service, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil {
				errors.WriteHTTP(w, errors.New(errors.ErrUnauthorized, "unauthorized"))
				return
			}

			session, ok := tokens.Verify(cookie.Value)
			if !ok {
				errors.WriteHTTP(w, errors.New(errors.ErrUnauthorized, "unauthorized"))
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, session.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext возвращает субъекта аутентифицированной сессии
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey).(string)
	return actor
}

// OverlayFromRequest разбирает cookie оверлея архивации в множество ID рейсов.
// Отсутствующий или пустой cookie — пустой оверлей, не ошибка.
func OverlayFromRequest(r *http.Request) map[string]struct{} {
	cookie, err := r.Cookie(OverlayCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	overlay := make(map[string]struct{})
	for _, id := range strings.Split(cookie.Value, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			overlay[id] = struct{}{}
		}
	}
	return overlay
}
