package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Yuqi1124/TownRecord/internal/api/apierr"
	"github.com/Yuqi1124/TownRecord/internal/middleware"
)

// Logging logs every API request
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger)
}

// Recovery turns a panicking handler into an INTERNAL_ERROR response
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}
