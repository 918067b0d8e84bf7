// Package push fans messages out to every live connection of a participant.
package push

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/backgammon-go/internal/model"
)

// Message is one event addressed to a participant
type Message struct {
	Event model.EventType
	Data  []byte // JSON payload
}

// delivery is a queued message. A nil to means every connection.
type delivery struct {
	msg Message
	to  *Subscriber
}

// Hub manages the connections of a single participant. Messages leave the
// hub in the order they were queued, whether broadcast or addressed.
type Hub struct {
	participantID model.ParticipantID
	subscribers   map[*Subscriber]bool
	mu            sync.RWMutex
	logger        *slog.Logger

	unregister chan *Subscriber
	broadcast  chan delivery
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub for a participant
func NewHub(participantID model.ParticipantID, logger *slog.Logger) *Hub {
	return &Hub{
		participantID: participantID,
		subscribers:   make(map[*Subscriber]bool),
		logger:        logger.With(slog.String("participant_id", string(participantID))),
		unregister:    make(chan *Subscriber),
		broadcast:     make(chan delivery, 256),
		done:          make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Debug("push hub started")
	for {
		select {
		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.send)
				count := len(h.subscribers)
				h.mu.Unlock()
				h.logger.Info("push subscriber unregistered",
					slog.String("transport", sub.transport),
					slog.Duration("connection_duration", time.Since(sub.connectedAt)),
					slog.Int("total_subscribers", count))
			} else {
				h.mu.Unlock()
			}

		case d := <-h.broadcast:
			h.mu.RLock()
			dropped := 0
			for sub := range h.subscribers {
				if d.to != nil && d.to != sub {
					continue
				}
				select {
				case sub.send <- d.msg:
				default:
					dropped++
				}
			}
			h.mu.RUnlock()
			if dropped > 0 {
				h.logger.Warn("push message dropped - subscriber buffer full",
					slog.String("event", string(d.msg.Event)),
					slog.Int("dropped", dropped))
			}

		case <-h.done:
			h.mu.Lock()
			count := len(h.subscribers)
			for sub := range h.subscribers {
				close(sub.send)
				delete(h.subscribers, sub)
			}
			h.mu.Unlock()
			h.logger.Debug("push hub stopped", slog.Int("disconnected_subscribers", count))
			return
		}
	}
}

// Subscribe registers a new connection and returns it. The connection is
// counted as soon as Subscribe returns; on a closed hub it comes back closed.
func (h *Hub) Subscribe(transport string) *Subscriber {
	sub := newSubscriber(h.participantID, transport)

	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		close(sub.send)
		return sub
	default:
	}
	h.subscribers[sub] = true
	h.logger.Info("push subscriber registered",
		slog.String("transport", sub.transport),
		slog.Int("total_subscribers", len(h.subscribers)))
	return sub
}

// Unsubscribe removes a connection from the hub
func (h *Hub) Unsubscribe(sub *Subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Send queues a message for every connection of the participant
func (h *Hub) Send(msg Message) {
	h.enqueue(delivery{msg: msg})
}

// SendTo queues a message for one connection only. It is dropped if that
// connection has already gone.
func (h *Hub) SendTo(sub *Subscriber, msg Message) {
	h.enqueue(delivery{msg: msg, to: sub})
}

func (h *Hub) enqueue(d delivery) {
	select {
	case h.broadcast <- d:
	default:
		h.logger.Warn("push message dropped - hub buffer full",
			slog.String("event", string(d.msg.Event)))
	}
}

// Close shuts down the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// SubscriberCount returns the number of live connections
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// HubManager manages hubs for all participants
type HubManager struct {
	hubs   map[model.ParticipantID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.ParticipantID]*Hub),
		logger: logger.With(slog.String("component", "push")),
	}
}

// Subscribe registers a new connection for a participant, starting their hub
// if needed. It holds the manager lock so cleanup never closes the hub in between.
func (m *HubManager) Subscribe(participantID model.ParticipantID, transport string) (*Hub, *Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[participantID]
	if !ok {
		hub = NewHub(participantID, m.logger)
		m.hubs[participantID] = hub
		go hub.Run()
	}
	return hub, hub.Subscribe(transport)
}

// GetHub returns the hub for a participant, or nil if it doesn't exist
func (m *HubManager) GetHub(participantID model.ParticipantID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[participantID]
}

// CleanupEmptyHubs stops and removes hubs with no connections, returning how many went
func (m *HubManager) CleanupEmptyHubs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, hub := range m.hubs {
		if hub.SubscriberCount() == 0 {
			hub.Close()
			delete(m.hubs, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("push empty hubs cleaned up", slog.Int("removed", removed))
	}
	return removed
}

// HubCount returns the number of running hubs
func (m *HubManager) HubCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hubs)
}

// Close shuts every hub down
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}
