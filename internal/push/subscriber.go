package push

import (
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/backgammon-go/internal/model"
)

const (
	// Time between keepalive comments on an event stream
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 64

	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

// Subscriber is one live connection of a participant
type Subscriber struct {
	participantID model.ParticipantID
	transport     string
	send          chan Message
	connectedAt   time.Time
}

func newSubscriber(participantID model.ParticipantID, transport string) *Subscriber {
	return &Subscriber{
		participantID: participantID,
		transport:     transport,
		send:          make(chan Message, sendBufferSize),
		connectedAt:   time.Now(),
	}
}

// Messages returns the channel of queued messages; it is closed when the
// subscriber is removed from its hub
func (s *Subscriber) Messages() <-chan Message {
	return s.send
}

// ServeSSE streams a participant's messages as server-sent events until the
// request ends. initial, if non-nil, is written right after the connected event.
func ServeSSE(w http.ResponseWriter, r *http.Request, manager *HubManager, participantID model.ParticipantID, initial *Message) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	hub, sub := manager.Subscribe(participantID, TransportSSE)
	defer hub.Unsubscribe(sub)

	_, _ = w.Write(formatSSEMessage(string(model.EventConnected), `{"status":"connected"}`))
	if initial != nil {
		_, _ = w.Write(formatSSEMessage(string(initial.Event), string(initial.Data)))
	}
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-sub.send:
			if !ok {
				return
			}
			if _, err := w.Write(formatSSEMessage(string(msg.Event), string(msg.Data))); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// formatSSEMessage formats an SSE message with event name and data.
// Every line of data gets its own "data: " prefix.
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(eventName)
	b.WriteString("\n")
	for _, line := range splitLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// splitLines splits a string into lines, dropping carriage returns
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
