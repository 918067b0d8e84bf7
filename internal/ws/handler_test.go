package ws_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/backgammon-go/internal/api"
	"github.com/mcoot/backgammon-go/internal/api/apierr"
	"github.com/mcoot/backgammon-go/internal/api/request"
	"github.com/mcoot/backgammon-go/internal/api/response"
	"github.com/mcoot/backgammon-go/internal/factory"
	"github.com/mcoot/backgammon-go/internal/model"
	"github.com/mcoot/backgammon-go/internal/ws"
)

type HandlerSuite struct {
	suite.Suite
	app    *factory.TestApp
	server *httptest.Server
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.app = factory.NewTestApp()
	wsHandler := ws.NewHandler(s.app.AuthService, s.app.LobbyController, s.app.GameController, s.app.HubManager, s.app.Logger)
	s.server = httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:          s.app.Logger,
		AuthService:     s.app.AuthService,
		LobbyController: s.app.LobbyController,
		GameController:  s.app.GameController,
		HubManager:      s.app.HubManager,
		WebSocket:       wsHandler,
	}))
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
	_ = s.app.Close()
}

// client is a test-side websocket connection
type client struct {
	t             *testing.T
	conn          *websocket.Conn
	participantID model.ParticipantID
	token         string
}

func (s *HandlerSuite) dial(query string) *client {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	if query != "" {
		url += "?" + query
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })

	c := &client{t: s.T(), conn: conn}
	var connected response.Connected
	c.expect(model.EventConnected, &connected)
	c.participantID = model.ParticipantID(connected.ParticipantID)
	c.token = connected.SessionToken
	return c
}

func (c *client) send(intent model.IntentType, data any) {
	env := ws.Envelope{Event: string(intent)}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(c.t, err)
		env.Data = raw
	}
	require.NoError(c.t, c.conn.WriteJSON(env))
}

// expect reads frames until one carries event, skipping any others
func (c *client) expect(event model.EventType, out any) {
	c.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(c.t, c.conn.SetReadDeadline(deadline))
		var env ws.Envelope
		require.NoError(c.t, c.conn.ReadJSON(&env), "waiting for %s", event)
		if env.Event != string(event) {
			continue
		}
		if out != nil {
			require.NoError(c.t, json.Unmarshal(env.Data, out))
		}
		return
	}
}

// expectState reads game-state frames until match accepts one
func (c *client) expectState(match func(model.Projection) bool) model.Projection {
	c.t.Helper()
	for {
		var p model.Projection
		c.expect(model.EventGameState, &p)
		if match(p) {
			return p
		}
	}
}

func (c *client) expectError(code string) {
	c.t.Helper()
	var apiErr apierr.APIError
	c.expect(model.EventErrorMessage, &apiErr)
	assert.Equal(c.t, code, apiErr.Code)
}

func inPhase(phase model.Phase) func(model.Projection) bool {
	return func(p model.Projection) bool { return p.Phase == phase }
}

func (s *HandlerSuite) waitSubscribed(id model.ParticipantID) {
	s.Require().Eventually(func() bool {
		hub := s.app.HubManager.GetHub(id)
		return hub != nil && hub.SubscriberCount() > 0
	}, time.Second, 5*time.Millisecond)
}

func (s *HandlerSuite) TestAnonymousConnectionGetsGuest() {
	c := s.dial("name=Alice")

	s.NotEmpty(c.participantID)
	s.Equal("sess_token-1", c.token)

	session, err := s.app.AuthService.ValidateSession(c.token)
	s.Require().NoError(err)
	s.Equal(c.participantID, session.ParticipantID)
	s.Equal("Alice", session.Participant.DisplayName)
}

func (s *HandlerSuite) TestAuthenticatedConnectionKeepsIdentity() {
	session, err := s.app.AuthService.CreateGuestParticipant(context.Background(), "Bob")
	s.Require().NoError(err)

	c := s.dial("token=" + session.Token)

	s.Equal(session.ParticipantID, c.participantID)
	s.Empty(c.token)
}

func (s *HandlerSuite) TestNewGameRepliesWithCode() {
	c := s.dial("")
	s.waitSubscribed(c.participantID)

	s.app.MockRandom.QueueString("ABC123")
	c.send(model.IntentNewGame, nil)

	var code model.CodeNotice
	c.expect(model.EventSessionCode, &code)
	s.Equal(model.SessionCode("ABC123"), code.Code)

	c.send(model.IntentGetState, nil)
	p := c.expectState(inPhase(model.PhaseWaitingForOpponent))
	s.Equal(model.SessionCode("ABC123"), p.Code)
	s.False(p.OpponentJoined)
}

func (s *HandlerSuite) TestJoinPushesStateToBoth() {
	alice := s.dial("name=Alice")
	bob := s.dial("name=Bob")
	s.waitSubscribed(alice.participantID)
	s.waitSubscribed(bob.participantID)

	s.app.MockRandom.QueueString("ABC123")
	alice.send(model.IntentNewGame, nil)
	alice.expect(model.EventSessionCode, nil)

	bob.send(model.IntentJoinGame, request.JoinRequest{Code: "abc123"})

	aliceView := alice.expectState(inPhase(model.PhaseInitialRolls))
	bobView := bob.expectState(inPhase(model.PhaseInitialRolls))
	s.True(aliceView.OpponentJoined)
	s.True(bobView.OpponentJoined)
	s.Equal(aliceView.Pieces, bobView.Pieces)
}

func (s *HandlerSuite) TestPlayThroughOpeningMove() {
	alice := s.dial("name=Alice")
	bob := s.dial("name=Bob")
	s.waitSubscribed(alice.participantID)
	s.waitSubscribed(bob.participantID)

	s.app.MockRandom.QueueDice(6, 1)
	s.app.MockRandom.QueueString("ABC123")
	alice.send(model.IntentNewGame, nil)
	alice.expect(model.EventSessionCode, nil)
	bob.send(model.IntentJoinGame, request.JoinRequest{Code: "ABC123"})
	bob.expectState(inPhase(model.PhaseInitialRolls))

	alice.send(model.IntentRollInitial, nil)
	bob.send(model.IntentRollInitial, nil)

	p := alice.expectState(inPhase(model.PhasePlay))
	s.True(p.IsMyTurn)
	s.Equal([]int{6, 1}, p.MovesLeft)

	bob.send(model.IntentMovePiece, map[string]int{"piece": 0, "to": 6})
	bob.expectError(apierr.CodeNotYourTurn)

	alice.send(model.IntentMovePiece, map[string]int{"piece": 0, "to": 1})
	p = alice.expectState(func(p model.Projection) bool { return len(p.MovesLeft) == 1 })
	s.Equal([]int{6}, p.MovesLeft)
	s.Equal(1, p.Pieces[0][0])

	// Bob sees alice's piece in their own orientation
	theirs := bob.expectState(func(p model.Projection) bool { return p.Pieces[1][0] != 23 })
	s.Equal(22, theirs.Pieces[1][0])
}

func (s *HandlerSuite) TestRejectedIntentsReplyWithError() {
	c := s.dial("")

	c.send(model.IntentJoinGame, request.JoinRequest{Code: "NOPE00"})
	c.expectError(apierr.CodeInvalidJoinCode)

	c.send(model.IntentJoinGame, nil)
	c.expectError(apierr.CodeInvalidRequest)

	c.send(model.IntentRollDice, nil)
	c.expectError(apierr.CodeSessionNotFound)

	c.send("fly-away", nil)
	c.expectError(apierr.CodeInvalidRequest)

	s.Require().NoError(c.conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	c.expectError(apierr.CodeInvalidRequest)
}

// next reads the next frame whatever its event
func (c *client) next() ws.Envelope {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env ws.Envelope
	require.NoError(c.t, c.conn.ReadJSON(&env))
	return env
}

func (s *HandlerSuite) TestNewGameSendsCodeBeforeState() {
	c := s.dial("")

	s.app.MockRandom.QueueString("ABC123")
	c.send(model.IntentNewGame, nil)
	c.send(model.IntentGetState, nil)

	// Creation pushes, then the get-state reply, strictly in that order
	s.Equal(string(model.EventSessionCode), c.next().Event)
	for i := 0; i < 2; i++ {
		env := c.next()
		s.Equal(string(model.EventGameState), env.Event)
		var p model.Projection
		s.Require().NoError(json.Unmarshal(env.Data, &p))
		s.Equal(model.SessionCode("ABC123"), p.Code)
	}
}

func (s *HandlerSuite) TestOpeningRollEvents() {
	alice := s.dial("name=Alice")
	bob := s.dial("name=Bob")

	s.app.MockRandom.QueueDice(3, 4)
	s.app.MockRandom.QueueString("ABC123")
	alice.send(model.IntentNewGame, nil)
	alice.expect(model.EventSessionCode, nil)
	bob.send(model.IntentJoinGame, request.JoinRequest{Code: "ABC123"})
	bob.expectState(inPhase(model.PhaseInitialRolls))

	alice.send(model.IntentRollInitial, nil)
	var mine, theirs int
	alice.expect(model.EventInitialDice, &mine)
	bob.expect(model.EventOpponentInitialDice, &theirs)
	s.Equal(3, mine)
	s.Equal(3, theirs)

	alice.send(model.IntentRollInitial, nil)
	alice.expectError(apierr.CodeAlreadyRolled)

	bob.send(model.IntentRollInitial, nil)
	p := bob.expectState(inPhase(model.PhasePlay))
	s.True(p.IsMyTurn)
	s.Equal([]int{3, 4}, p.MovesLeft)
}

func (s *HandlerSuite) TestChatIsAcceptedSilently() {
	c := s.dial("")

	c.send(model.IntentChat, "good luck")
	c.send(model.IntentGetState, nil)
	c.expectError(apierr.CodeSessionNotFound)

	c.send(model.IntentChat, 42)
	c.expectError(apierr.CodeInvalidRequest)
}

func (s *HandlerSuite) TestMoveRequiresPieceAndDestination() {
	c := s.dial("")

	c.send(model.IntentMovePiece, map[string]int{"piece": 0})
	c.expectError(apierr.CodeInvalidRequest)
}

func (s *HandlerSuite) TestDisconnectUnsubscribes() {
	c := s.dial("")
	s.waitSubscribed(c.participantID)

	s.Require().NoError(c.conn.Close())

	s.Eventually(func() bool {
		return s.app.HubManager.GetHub(c.participantID).SubscriberCount() == 0
	}, time.Second, 5*time.Millisecond)
}

func (s *HandlerSuite) TestCleanupStopsHubsOfClosedConnections() {
	s.app.StartCleanup(context.Background(), time.Minute)
	for i := 0; i < 20; i++ {
		c := s.dial("")
		s.waitSubscribed(c.participantID)
		s.Require().NoError(c.conn.Close())
		s.Eventually(func() bool {
			return s.app.HubManager.GetHub(c.participantID).SubscriberCount() == 0
		}, time.Second, 5*time.Millisecond)
	}
	live := s.dial("")
	s.waitSubscribed(live.participantID)
	s.Equal(21, s.app.HubManager.HubCount())

	s.app.MockClock.Advance(time.Minute)

	s.Equal(1, s.app.HubManager.HubCount())
	s.NotNil(s.app.HubManager.GetHub(live.participantID))
}
