package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Yuqi1124/TownRecord/internal/api/apierr"
	"github.com/Yuqi1124/TownRecord/internal/model"
	"github.com/Yuqi1124/TownRecord/internal/services/registry"
	"github.com/Yuqi1124/TownRecord/internal/services/town"
)

type contextKey string

const (
	townContextKey    contextKey = "town"
	sessionContextKey contextKey = "session"
)

// Session resolves the {townID} route variable and the caller's session
// token, rejecting the request when either is unknown
func Session(reg *registry.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			controller, err := reg.Find(r.Context(), model.TownID(mux.Vars(r)["townID"]))
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, ok := controller.SessionByToken(token)
			if !ok {
				apierr.WriteError(w, model.ErrSessionNotFound)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, townContextKey, controller)
			ctx = context.WithValue(ctx, sessionContextKey, session)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the session token from the request. Browsers
// cannot set headers on a websocket handshake, so a query parameter is
// accepted as well.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// GetTown returns the resolved town from the request context
func GetTown(ctx context.Context) *town.Controller {
	controller, _ := ctx.Value(townContextKey).(*town.Controller)
	return controller
}

// GetSession returns the resolved session from the request context
func GetSession(ctx context.Context) *model.Session {
	session, _ := ctx.Value(sessionContextKey).(*model.Session)
	return session
}

// MustGetSession returns the resolved town and session or panics
func MustGetSession(ctx context.Context) (*town.Controller, *model.Session) {
	controller, session := GetTown(ctx), GetSession(ctx)
	if controller == nil || session == nil {
		panic("no session in context - session middleware not applied?")
	}
	return controller, session
}
