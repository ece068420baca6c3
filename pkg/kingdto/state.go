package kingdto

// SquareDTO is one occupied square. Empty squares are omitted from StateResponse.
type SquareDTO struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Piece string `json:"piece"`
	Team  string `json:"team"`
}

type MoveDTO struct {
	From     int    `json:"from"`
	To       int    `json:"to"`
	UCI      string `json:"uci"`
	Captures string `json:"captures,omitempty"`
}

type ScoreDTO struct {
	White uint `json:"white"`
	Black uint `json:"black"`
}

type StateResponse struct {
	SessionID   string      `json:"session_id"`
	WhiteToMove bool        `json:"white_to_move"`
	Turn        string      `json:"turn"`
	Score       ScoreDTO    `json:"score"`
	Placement   string      `json:"placement"`
	Squares     []SquareDTO `json:"squares"`
	LastMove    *MoveDTO    `json:"last_move,omitempty"`
}

type MovesResponse struct {
	Team  string    `json:"team"`
	Moves []MoveDTO `json:"moves"`
}
