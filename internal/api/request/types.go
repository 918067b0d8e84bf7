package request

// CreateParticipantRequest is the request body for creating a guest participant
type CreateParticipantRequest struct {
	DisplayName string `json:"display_name"`
}

// MoveRequest is the request body for moving a piece. Spikes are in the
// caller's own orientation: -1 is the bar and 24 is borne off.
type MoveRequest struct {
	Piece *int `json:"piece"`
	To    *int `json:"to"`
}

// JoinRequest is the payload of a websocket join intent
type JoinRequest struct {
	Code string `json:"code"`
}
