package game

import (
	"context"

	"github.com/mcoot/backgammon-go/internal/model"
)

// Notifier delivers projections and one-off events to connected participants.
// Events for one participant arrive in the order they were published.
type Notifier interface {
	PublishState(ctx context.Context, to model.ParticipantID, p model.Projection)
	PublishEvent(ctx context.Context, to model.ParticipantID, event model.EventType, payload any)
}

// NopNotifier drops everything
type NopNotifier struct{}

// PublishState does nothing
func (NopNotifier) PublishState(context.Context, model.ParticipantID, model.Projection) {}

// PublishEvent does nothing
func (NopNotifier) PublishEvent(context.Context, model.ParticipantID, model.EventType, any) {}
