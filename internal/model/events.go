package model

// EventType identifies a message pushed to a participant
type EventType string

const (
	EventConnected           EventType = "connected"
	EventSessionCode         EventType = "unique-code"
	EventInitialDice         EventType = "initial-dice"
	EventOpponentInitialDice EventType = "opponent-initial-dice"
	EventGameState           EventType = "game-state"
	EventErrorMessage        EventType = "error-message"
)

// CodeNotice is the payload of unique-code
type CodeNotice struct {
	Code SessionCode `json:"code"`
}

// IntentType identifies a message sent by a participant over the realtime connection
type IntentType string

const (
	IntentNewGame     IntentType = "new-game"
	IntentJoinGame    IntentType = "join-game"
	IntentRollInitial IntentType = "roll-initial-dice"
	IntentRollDice    IntentType = "roll-dice"
	IntentMovePiece   IntentType = "move-piece"
	IntentPlayAgain   IntentType = "play-again"
	IntentGetState    IntentType = "get-state"
	IntentChat        IntentType = "chat"
)
