package kingdto

// TurnRequest names a move either by indices or by UCI text. UCI wins when both are set.
type TurnRequest struct {
	From *int   `json:"from,omitempty"`
	To   *int   `json:"to,omitempty"`
	UCI  string `json:"uci,omitempty"`
}

type PrepareRequest struct {
	ResetScore bool `json:"reset_score"`
}

type TurnResponse struct {
	Accepted     bool          `json:"accepted"`
	Move         MoveDTO       `json:"move"`
	KingCaptured bool          `json:"king_captured"`
	Reply        *TurnResponse `json:"reply,omitempty"`
	State        StateResponse `json:"state"`
}
