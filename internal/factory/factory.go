package factory

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/mcoot/backgammon-go/internal/dependencies/clock"
	"github.com/mcoot/backgammon-go/internal/dependencies/random"
	"github.com/mcoot/backgammon-go/internal/push"
	"github.com/mcoot/backgammon-go/internal/services/auth"
	"github.com/mcoot/backgammon-go/internal/services/dice"
	"github.com/mcoot/backgammon-go/internal/services/game"
	"github.com/mcoot/backgammon-go/internal/services/lobby"
	"github.com/mcoot/backgammon-go/internal/services/rules"
	"github.com/mcoot/backgammon-go/internal/storage"
	"github.com/mcoot/backgammon-go/internal/storage/memory"
	redisstorage "github.com/mcoot/backgammon-go/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	DiceService     *dice.Service
	RulesEngine     *rules.Engine
	GameController  *game.Controller
	LobbyController *lobby.Controller
	AuthService     *auth.Service

	// Push delivery
	HubManager  *push.HubManager
	Broadcaster *push.Broadcaster

	Logger *slog.Logger

	cleanupMu    sync.Mutex
	cleanupTimer clock.Timer
	closed       bool
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// GameConfig holds configuration for the game controller (optional)
	GameConfig game.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}
	gameCfg := cfg.GameConfig
	if gameCfg.BlockedTurnDelay == 0 {
		gameCfg = game.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), random.New(), authCfg, gameCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	gameCfg game.Config,
	logger *slog.Logger,
) *App {
	hubManager := push.NewHubManager(logger)
	broadcaster := push.NewBroadcaster(hubManager, logger)

	diceService := dice.New(rnd)
	rulesEngine := rules.New()
	gameController := game.NewController(store, diceService, rulesEngine, clk, broadcaster, gameCfg, logger)
	lobbyController := lobby.NewController(store, gameController, diceService, clk, rnd, logger)
	authService := auth.New(store, clk, rnd, authCfg)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		DiceService:     diceService,
		RulesEngine:     rulesEngine,
		GameController:  gameController,
		LobbyController: lobbyController,
		AuthService:     authService,
		HubManager:      hubManager,
		Broadcaster:     broadcaster,
		Logger:          logger,
	}
}

// Close stops the cleanup sweep and releases push hubs and the storage connection
func (a *App) Close() error {
	a.cleanupMu.Lock()
	a.closed = true
	if a.cleanupTimer != nil {
		a.cleanupTimer.Stop()
	}
	a.cleanupMu.Unlock()

	a.HubManager.Close()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
