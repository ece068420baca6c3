package kingdto

import "time"

const (
	EventTurn  = "turn"
	EventScore = "score"
)

// Event is the envelope published to Redis and pushed over websockets.
type Event struct {
	Type        string    `json:"type"`
	SessionID   string    `json:"session_id"`
	WhiteToMove *bool     `json:"white_to_move,omitempty"`
	Score       *ScoreDTO `json:"score,omitempty"`
	At          time.Time `json:"at"`
}

func TurnEvent(sessionID string, whiteToMove bool, at time.Time) Event {
	return Event{Type: EventTurn, SessionID: sessionID, WhiteToMove: &whiteToMove, At: at}
}

func ScoreEvent(sessionID string, white, black uint, at time.Time) Event {
	return Event{Type: EventScore, SessionID: sessionID, Score: &ScoreDTO{White: white, Black: black}, At: at}
}
