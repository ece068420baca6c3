package board

import (
	"fmt"
	"strings"
)

// Move relocates the piece on From to To. Two moves are equal iff both ends are equal.
type Move struct {
	From Position
	To   Position
}

// MoveFromIndices builds a Move from linear indices. Out-of-range indices become OffBoard,
// which no generator ever produces, so such moves are never valid.
func MoveFromIndices(from, to int) Move {
	return Move{From: FromIndex(from), To: FromIndex(to)}
}

func (m Move) String() string { return m.From.String() + m.To.String() }

// ParseMove reads "e2e4", "e2 e4", "e2-e4" or a pair of indices such as "12 28".
func ParseMove(s string) (Move, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '-' || r == ',' })
	if len(fields) == 1 && len(fields[0]) == 4 {
		fields = []string{fields[0][:2], fields[0][2:]}
	}
	if len(fields) != 2 {
		return Move{}, fmt.Errorf("%w: move %q", ErrInvalidSquare, s)
	}
	from, err := ParsePosition(fields[0])
	if err != nil {
		return Move{}, err
	}
	to, err := ParsePosition(fields[1])
	if err != nil {
		return Move{}, err
	}
	return Move{From: from, To: to}, nil
}

// TeamFlag filters which occupancy states a destination may have.
type TeamFlag uint8

const (
	FlagNone   TeamFlag = 1 << 0
	FlagFriend TeamFlag = 1 << 1
	FlagEnemy  TeamFlag = 1 << 2

	// DefaultFlags accepts empty squares and captures.
	DefaultFlags = FlagEnemy | FlagNone
)

func (f TeamFlag) Has(x TeamFlag) bool { return f&x != 0 }
