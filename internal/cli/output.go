package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Participant:
		o.printParticipant(v)
	case AuthResult:
		o.printAuthResult(v)
	case GameState:
		o.printGameState(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Participant response type (matches API)
type Participant struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuthResult combines participant and token
type AuthResult struct {
	Participant  Participant `json:"participant"`
	SessionToken string      `json:"session_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
}

// Move response type
type Move struct {
	Piece    int `json:"piece"`
	To       int `json:"to"`
	Distance int `json:"distance,omitempty"`
}

// GameState is one participant's view of a session. Pieces[0] are the
// viewer's own pieces; spikes run from -1 (waiting to enter) to 24 (borne off).
type GameState struct {
	Code                string     `json:"code"`
	Phase               string     `json:"phase"`
	IsMyTurn            bool       `json:"isMyTurn"`
	NeedsToRoll         bool       `json:"needsToRoll"`
	Dice                [2]int     `json:"dice"`
	MovesLeft           []int      `json:"movesLeft"`
	Pieces              [2][15]int `json:"pieces"`
	MyInitialRoll       int        `json:"myInitialRoll"`
	OpponentInitialRoll int        `json:"opponentInitialRoll"`
	OpponentJoined      bool       `json:"opponentJoined"`
	Blocked             bool       `json:"blocked"`
	Result              string     `json:"result,omitempty"`
	ValidMoves          []Move     `json:"validMoves"`
	GamesPlayed         int        `json:"gamesPlayed"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

const (
	entrySpike    = -1
	borneOffSpike = 24
	noRoll        = -1
)

// Summary is a one-line description of the state
func (g GameState) Summary() string {
	parts := []string{g.Code, g.Phase}
	switch {
	case g.Result != "":
		parts = append(parts, "you "+g.Result)
	case g.Phase == "play" && g.IsMyTurn && g.NeedsToRoll:
		parts = append(parts, "your turn, roll")
	case g.Phase == "play" && g.IsMyTurn:
		parts = append(parts, "your turn, moves "+joinInts(g.MovesLeft))
	case g.Phase == "play":
		parts = append(parts, "opponent's turn")
	}
	if g.Blocked {
		parts = append(parts, "blocked")
	}
	return strings.Join(parts, " | ")
}

func (o *Output) printParticipant(p Participant) {
	o.printf("Participant: %s (%s)\n", p.DisplayName, p.ID)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printParticipant(a.Participant)
	o.printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printGameState(g GameState) {
	o.printf("Session: %s\n", g.Code)
	o.printf("Phase: %s\n", g.Phase)
	if !g.OpponentJoined {
		o.printf("Waiting for an opponent to join with code %s\n", g.Code)
		return
	}
	if g.GamesPlayed > 0 {
		o.printf("Games played: %d\n", g.GamesPlayed)
	}

	if g.Phase == "initial_rolls" {
		o.printf("Opening rolls: you %s, opponent %s\n", rollString(g.MyInitialRoll), rollString(g.OpponentInitialRoll))
	}

	if g.Phase == "play" {
		if g.IsMyTurn {
			o.printf("Turn: yours\n")
		} else {
			o.printf("Turn: opponent's\n")
		}
		if g.NeedsToRoll {
			o.printf("Dice: not rolled\n")
		} else {
			o.printf("Dice: %d %d\n", g.Dice[0], g.Dice[1])
			o.printf("Moves left: %s\n", joinInts(g.MovesLeft))
		}
		if g.Blocked {
			o.printf("No legal moves, the turn will pass\n")
		}
	}

	if g.Result != "" {
		o.printf("Result: you %s\n", g.Result)
	}

	o.printf("\n")
	o.printBoard(g.Pieces)

	if len(g.ValidMoves) > 0 {
		o.printf("\nValid moves:\n")
		for _, m := range g.ValidMoves {
			o.printf("  piece %d -> %s (%d)\n", m.Piece, spikeName(m.To), m.Distance)
		}
	}
}

// printBoard lists every occupied spike from the viewer's side
func (o *Output) printBoard(pieces [2][15]int) {
	var mine, theirs [26]int
	for i := range pieces[0] {
		mine[pieces[0][i]+1]++
		theirs[pieces[1][i]+1]++
	}

	// The opponent enters at the viewer's 24 and bears off at the viewer's -1
	o.printf("Waiting to enter: you %d, opponent %d\n", mine[entrySpike+1], theirs[borneOffSpike+1])
	for spike := 0; spike < 24; spike++ {
		switch {
		case mine[spike+1] > 0:
			o.printf("  %2d: you x%d\n", spike, mine[spike+1])
		case theirs[spike+1] > 0:
			o.printf("  %2d: opponent x%d\n", spike, theirs[spike+1])
		}
	}
	o.printf("Borne off: you %d, opponent %d\n", mine[borneOffSpike+1], theirs[entrySpike+1])
}

func (o *Output) printHealthResult(h HealthResult) {
	o.printf("Status: %s\n", h.Status)
}

func rollString(v int) string {
	if v == noRoll {
		return "-"
	}
	return fmt.Sprint(v)
}

func spikeName(spike int) string {
	if spike >= borneOffSpike {
		return "off"
	}
	return fmt.Sprint(spike)
}

func joinInts(values []int) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = fmt.Sprint(v)
	}
	return strings.Join(s, " ")
}
