package redis

import (
	"fmt"

	"github.com/mcoot/backgammon-go/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "bgammon"

// participantKey returns the Redis key for a Participant
func participantKey(id model.ParticipantID) string {
	return fmt.Sprintf("%s:participant:%s", keyPrefix, id)
}

// sessionKey returns the Redis key for a Session
func sessionKey(code model.SessionCode) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, code)
}

// seatIndexKey returns the Redis key for the participant -> session code index
func seatIndexKey(id model.ParticipantID) string {
	return fmt.Sprintf("%s:idx:participant:%s", keyPrefix, id)
}
