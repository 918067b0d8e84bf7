// Package ws serves the realtime websocket endpoint. Each connection carries
// intents from one participant and delivers every event pushed to them.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/backgammon-go/internal/api/apierr"
	"github.com/mcoot/backgammon-go/internal/api/middleware"
	"github.com/mcoot/backgammon-go/internal/api/request"
	"github.com/mcoot/backgammon-go/internal/api/response"
	"github.com/mcoot/backgammon-go/internal/model"
	"github.com/mcoot/backgammon-go/internal/push"
	"github.com/mcoot/backgammon-go/internal/services/auth"
	"github.com/mcoot/backgammon-go/internal/services/game"
	"github.com/mcoot/backgammon-go/internal/services/lobby"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum intent size in bytes
	maxMessageSize = 4096

	// Longest chat line that is logged
	maxChatLength = 500

	// DisplayNameQueryParam names an anonymous participant on connect
	DisplayNameQueryParam = "name"
)

// Envelope is the wire form of every frame in both directions
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handler upgrades requests to websocket connections
type Handler struct {
	authService     auth.ServiceInterface
	lobbyController lobby.ControllerInterface
	gameController  game.ControllerInterface
	hubManager      *push.HubManager
	upgrader        websocket.Upgrader
	logger          *slog.Logger
}

// NewHandler creates a new websocket handler
func NewHandler(
	authService auth.ServiceInterface,
	lobbyController lobby.ControllerInterface,
	gameController game.ControllerInterface,
	hubManager *push.HubManager,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		authService:     authService,
		lobbyController: lobbyController,
		gameController:  gameController,
		hubManager:      hubManager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

// ServeHTTP handles GET /ws. A request without a valid token is given a new
// guest participant whose token is returned in the connected event.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	connected, participantID, err := h.identify(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	hub, sub := h.hubManager.Subscribe(participantID, push.TransportWebSocket)
	c := &connection{
		handler:       h,
		conn:          conn,
		participantID: participantID,
		hub:           hub,
		sub:           sub,
		done:          make(chan struct{}),
		logger:        h.logger.With(slog.String("participant_id", string(participantID))),
	}

	c.reply(model.EventConnected, connected)
	if p, err := h.gameController.GetState(r.Context(), participantID); err == nil {
		c.reply(model.EventGameState, p)
	}

	go c.writePump()
	c.readPump(context.WithoutCancel(r.Context()))

	hub.Unsubscribe(sub)
}

func (h *Handler) identify(r *http.Request) (response.Connected, model.ParticipantID, error) {
	if session := middleware.GetSession(r.Context()); session != nil {
		return response.Connected{ParticipantID: string(session.ParticipantID)}, session.ParticipantID, nil
	}

	session, err := h.authService.CreateGuestParticipant(r.Context(), r.URL.Query().Get(DisplayNameQueryParam))
	if err != nil {
		return response.Connected{}, "", err
	}
	return response.Connected{
		ParticipantID: string(session.ParticipantID),
		SessionToken:  session.Token,
	}, session.ParticipantID, nil
}

// connection is one upgraded websocket. Only writePump writes to conn, and
// everything it writes comes through the participant's hub in queue order.
type connection struct {
	handler       *Handler
	conn          *websocket.Conn
	participantID model.ParticipantID
	hub           *push.Hub
	sub           *push.Subscriber
	done          chan struct{}
	logger        *slog.Logger
}

// reply queues an event for this connection only, behind anything already
// pushed to the participant
func (c *connection) reply(event model.EventType, payload any) {
	msg, err := push.NewMessage(event, payload)
	if err != nil {
		c.logger.Error("failed to encode reply", slog.String("event", string(event)), slog.Any("error", err))
		return
	}
	c.hub.SendTo(c.sub, msg)
}

func (c *connection) replyError(err error) {
	_, apiErr := apierr.Describe(err)
	c.reply(model.EventErrorMessage, apiErr)
}

func (c *connection) readPump(ctx context.Context) {
	defer func() {
		close(c.done)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket closed unexpectedly", slog.Any("error", err))
			}
			return
		}

		var in Envelope
		if err := json.Unmarshal(data, &in); err != nil {
			c.replyError(apierr.NewInvalidRequestError("Invalid JSON"))
			continue
		}

		if err := c.dispatch(ctx, model.IntentType(in.Event), in.Data); err != nil {
			c.logger.Debug("intent rejected",
				slog.String("intent", in.Event),
				slog.String("error", err.Error()))
			c.replyError(err)
		}
	}
}

// dispatch runs one intent. State changes reach the participant through the
// push hub; only direct answers are replied here.
func (c *connection) dispatch(ctx context.Context, intent model.IntentType, data json.RawMessage) error {
	h := c.handler

	switch intent {
	case model.IntentNewGame:
		// The code reaches every connection of the creator as unique-code
		_, err := h.lobbyController.CreateSession(ctx, c.participantID)
		return err

	case model.IntentJoinGame:
		var req request.JoinRequest
		if err := decode(data, &req); err != nil {
			return err
		}
		_, err := h.lobbyController.JoinSession(ctx, model.NormalizeCode(req.Code), c.participantID)
		return err

	case model.IntentRollInitial:
		_, err := h.gameController.RollInitial(ctx, c.participantID)
		return err

	case model.IntentRollDice:
		_, err := h.gameController.Roll(ctx, c.participantID)
		return err

	case model.IntentMovePiece:
		var req request.MoveRequest
		if err := decode(data, &req); err != nil {
			return err
		}
		if req.Piece == nil || req.To == nil {
			return apierr.NewInvalidRequestError("piece and to are required")
		}
		_, err := h.gameController.Move(ctx, c.participantID, model.Move{Piece: *req.Piece, To: *req.To})
		return err

	case model.IntentPlayAgain:
		_, err := h.gameController.Rematch(ctx, c.participantID)
		return err

	case model.IntentGetState:
		p, err := h.gameController.GetState(ctx, c.participantID)
		if err != nil {
			return err
		}
		c.reply(model.EventGameState, p)
		return nil

	case model.IntentChat:
		var line string
		if err := decode(data, &line); err != nil {
			return err
		}
		if len(line) > maxChatLength {
			line = strings.ToValidUTF8(line[:maxChatLength], "")
		}
		c.logger.Info("chat", slog.String("message", line))
		return nil

	default:
		return apierr.NewInvalidRequestError("Unknown intent: " + string(intent))
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return apierr.NewInvalidRequestError("Missing data")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apierr.NewInvalidRequestError("Invalid data")
	}
	return nil
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sub.Messages():
			if !ok {
				c.writeClose()
				return
			}
			if err := c.write(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *connection) write(msg push.Message) error {
	frame, err := json.Marshal(Envelope{Event: string(msg.Event), Data: msg.Data})
	if err != nil {
		return err
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		if !errors.Is(err, websocket.ErrCloseSent) {
			c.logger.Debug("websocket write failed", slog.Any("error", err))
		}
		return err
	}
	return nil
}

func (c *connection) writeClose() {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
