package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/backgammon-go/internal/api/handler"
	"github.com/mcoot/backgammon-go/internal/api/middleware"
	"github.com/mcoot/backgammon-go/internal/api/response"
	"github.com/mcoot/backgammon-go/internal/push"
	"github.com/mcoot/backgammon-go/internal/services/auth"
	"github.com/mcoot/backgammon-go/internal/services/game"
	"github.com/mcoot/backgammon-go/internal/services/lobby"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	AuthService     *auth.Service
	LobbyController *lobby.Controller
	GameController  *game.Controller
	HubManager      *push.HubManager
	// WebSocket serves the realtime endpoint at /ws when set
	WebSocket http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	participantHandler := handler.NewParticipantHandler(cfg.AuthService)
	sessionHandler := handler.NewSessionHandler(cfg.LobbyController, cfg.GameController, cfg.HubManager, cfg.Logger)
	gameHandler := handler.NewGameHandler(cfg.GameController)

	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Participant routes (creating a participant needs no auth)
	api.HandleFunc("/participants", participantHandler.Create).Methods(http.MethodPost)

	participants := api.PathPrefix("/participants").Subrouter()
	participants.Use(authMiddleware)
	participants.HandleFunc("/me", participantHandler.GetMe).Methods(http.MethodGet)

	// Session registry routes
	sessions := api.PathPrefix("/sessions").Subrouter()
	sessions.Use(authMiddleware)
	sessions.HandleFunc("", sessionHandler.Create).Methods(http.MethodPost)
	sessions.HandleFunc("/{code}/join", sessionHandler.Join).Methods(http.MethodPost)

	// The caller's current session
	current := api.PathPrefix("/session").Subrouter()
	current.Use(authMiddleware)
	current.HandleFunc("", sessionHandler.Get).Methods(http.MethodGet)
	current.HandleFunc("/events", sessionHandler.Events).Methods(http.MethodGet)
	current.HandleFunc("/initial-roll", gameHandler.RollInitial).Methods(http.MethodPost)
	current.HandleFunc("/roll", gameHandler.Roll).Methods(http.MethodPost)
	current.HandleFunc("/move", gameHandler.Move).Methods(http.MethodPost)
	current.HandleFunc("/rematch", gameHandler.Rematch).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	if cfg.WebSocket != nil {
		ws := r.PathPrefix("/ws").Subrouter()
		ws.Use(recoveryMiddleware)
		ws.Use(loggingMiddleware)
		ws.Handle("", middleware.OptionalAuth(cfg.AuthService)(cfg.WebSocket)).Methods(http.MethodGet)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
