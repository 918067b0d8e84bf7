package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/backgammon-go/internal/api/apierr"
	"github.com/mcoot/backgammon-go/internal/middleware"
)

// Recovery creates panic recovery middleware for the API.
// Panics become JSON internal-error responses.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

// Logging logs every API request
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger.With(slog.String("component", "api")))
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
