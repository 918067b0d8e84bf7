package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TTL settings. Sessions are never cleaned up on disconnect, so the TTL
	// is what eventually reclaims abandoned ones.
	ParticipantTTL time.Duration
	SessionTTL     time.Duration

	// MaxUpdateRetries bounds optimistic retries when a watched session changes mid-update
	MaxUpdateRetries int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:              "redis://localhost:6379",
		PoolSize:         10,
		MinIdleConns:     2,
		ParticipantTTL:   24 * time.Hour,
		SessionTTL:       24 * time.Hour,
		MaxUpdateRetries: 10,
	}
}
