package board

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSquare    = errors.New("invalid square")
	ErrInvalidPlacement = errors.New("invalid placement")
)

// backRank is the piece order on rank 1 (White) and rank 8 (Black), file a to h.
var backRank = [Size]PieceKind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// Board is the ordered 64-square collection. A new Board has no squares until
// Reset or Clear is called; only the session's applicator and reset mutate it.
type Board struct {
	squares []Square
}

func New() *Board { return &Board{} }

func (b *Board) Ready() bool { return b != nil && len(b.squares) == NumSquares }

// Reset places the standard starting setup. The first call allocates; later calls
// clear in place.
func (b *Board) Reset() {
	b.Clear()

	for file := 0; file < Size; file++ {
		b.SetSquare(At(file, 1), Pawn, White)
		b.SetSquare(At(file, 0), backRank[file], White)

		b.SetSquare(At(file, Size-2), Pawn, Black)
		b.SetSquare(At(file, Size-1), backRank[file], Black)
	}
}

func (b *Board) Clear() {
	if b.squares == nil {
		b.squares = make([]Square, NumSquares)
	}
	for i := range b.squares {
		b.squares[i] = Empty
	}
}

// SquareAt returns the square at pos. pos must be on the board.
func (b *Board) SquareAt(pos Position) Square {
	return b.squares[pos.Index()]
}

// SetSquare overwrites the square at pos. If either kind or team is "none" the
// square becomes empty, so no empty square carries a team and vice versa.
func (b *Board) SetSquare(pos Position, kind PieceKind, team Team) {
	if kind == NoPiece || team == NoTeam {
		b.squares[pos.Index()] = Empty
		return
	}
	b.squares[pos.Index()] = Square{Piece: kind, Team: team}
}

func (b *Board) Squares() []Square {
	return append([]Square(nil), b.squares...)
}

// Clone returns an independent copy, suitable as a read-only snapshot.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	c := &Board{}
	if b.squares != nil {
		c.squares = append(make([]Square, 0, NumSquares), b.squares...)
	}
	return c
}

// Placement encodes the squares as ranks 8..1 separated by '/', with digits for
// runs of empty squares.
func (b *Board) Placement() string {
	if !b.Ready() {
		return ""
	}
	var sb strings.Builder
	for rank := Size - 1; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < Size; file++ {
			c := b.squares[ToIndex(file, rank)].letter()
			if c == 0 {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(c)
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// ParsePlacement builds a board from the format produced by Placement.
func ParsePlacement(s string) (*Board, error) {
	ranks := strings.Split(strings.TrimSpace(s), "/")
	if len(ranks) != Size {
		return nil, fmt.Errorf("%w: want %d ranks, got %d", ErrInvalidPlacement, Size, len(ranks))
	}
	b := New()
	b.Clear()
	for i, row := range ranks {
		rank := Size - 1 - i
		file := 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			sq, ok := squareFromLetter(c)
			if !ok {
				return nil, fmt.Errorf("%w: unexpected %q in rank %d", ErrInvalidPlacement, c, rank+1)
			}
			if file >= Size {
				return nil, fmt.Errorf("%w: rank %d too long", ErrInvalidPlacement, rank+1)
			}
			b.SetSquare(At(file, rank), sq.Piece, sq.Team)
			file++
		}
		if file != Size {
			return nil, fmt.Errorf("%w: rank %d has %d files", ErrInvalidPlacement, rank+1, file)
		}
	}
	return b, nil
}

func (b *Board) String() string {
	if !b.Ready() {
		return "(empty board)\n"
	}
	var sb strings.Builder
	for rank := Size - 1; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d ", rank+1)
		for file := 0; file < Size; file++ {
			c := b.squares[ToIndex(file, rank)].letter()
			if c == 0 {
				c = '.'
			}
			sb.WriteByte(c)
			if file < Size-1 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}
