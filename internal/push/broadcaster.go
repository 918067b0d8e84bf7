package push

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mcoot/backgammon-go/internal/model"
	"github.com/mcoot/backgammon-go/internal/services/game"
)

// Broadcaster delivers projections to participants' live connections
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "push-broadcaster")),
	}
}

var _ game.Notifier = (*Broadcaster)(nil)

// PublishState sends a game-state event to every connection of a participant.
// Participants without a live connection are skipped.
func (b *Broadcaster) PublishState(ctx context.Context, to model.ParticipantID, p model.Projection) {
	b.PublishEvent(ctx, to, model.EventGameState, p)
}

// PublishEvent encodes payload and sends it to a participant under the given event name
func (b *Broadcaster) PublishEvent(_ context.Context, to model.ParticipantID, event model.EventType, payload any) {
	hub := b.hubManager.GetHub(to)
	if hub == nil {
		return
	}

	msg, err := NewMessage(event, payload)
	if err != nil {
		b.logger.Error("push failed to encode message",
			slog.String("participant_id", string(to)),
			slog.String("event", string(event)),
			slog.Any("error", err))
		return
	}
	hub.Send(msg)
}

// NewMessage encodes payload as JSON under the given event name
func NewMessage(event model.EventType, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Event: event, Data: data}, nil
}
