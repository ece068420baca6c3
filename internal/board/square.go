package board

import "strings"

// PieceKind identifies the piece occupying a square.
type PieceKind uint8

const (
	NoPiece PieceKind = iota
	King
	Queen
	Rook
	Knight
	Bishop
	Pawn
)

var pieceNames = [...]string{"none", "king", "queen", "rook", "knight", "bishop", "pawn"}

func (k PieceKind) String() string {
	if int(k) < len(pieceNames) {
		return pieceNames[k]
	}
	return "unknown"
}

// ParsePieceKind is the inverse of String.
func ParsePieceKind(s string) (PieceKind, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	for i, n := range pieceNames {
		if n == v {
			return PieceKind(i), true
		}
	}
	return NoPiece, false
}

// Team owns pieces. Its value indexes score slots, so White and Black must stay 0 and 1.
type Team uint8

const (
	White Team = iota
	Black
	NoTeam
)

func (t Team) String() string {
	switch t {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "none"
	}
}

// Opponent returns the other side. NoTeam has no opponent.
func (t Team) Opponent() Team {
	switch t {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoTeam
	}
}

// ParseTeam accepts "white"/"w" and "black"/"b".
func ParseTeam(s string) (Team, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, true
	case "black", "b":
		return Black, true
	default:
		return NoTeam, false
	}
}

// Square describes one cell. Piece == NoPiece always pairs with Team == NoTeam.
type Square struct {
	Piece PieceKind
	Team  Team
}

// Empty is the unoccupied square.
var Empty = Square{Piece: NoPiece, Team: NoTeam}

func (s Square) IsEmpty() bool { return s.Team == NoTeam }

// letter maps a square to its placement letter: uppercase White, lowercase Black.
func (s Square) letter() byte {
	const letters = " kqrnbp"
	if s.IsEmpty() || int(s.Piece) >= len(letters) {
		return 0
	}
	c := letters[s.Piece]
	if s.Team == White {
		c -= 'a' - 'A'
	}
	return c
}

func squareFromLetter(c byte) (Square, bool) {
	team := Black
	if c >= 'A' && c <= 'Z' {
		team = White
		c += 'a' - 'A'
	}
	switch c {
	case 'k':
		return Square{King, team}, true
	case 'q':
		return Square{Queen, team}, true
	case 'r':
		return Square{Rook, team}, true
	case 'n':
		return Square{Knight, team}, true
	case 'b':
		return Square{Bishop, team}, true
	case 'p':
		return Square{Pawn, team}, true
	}
	return Empty, false
}
