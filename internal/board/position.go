package board

import (
	"fmt"
	"strconv"
)

// Size is the number of files (and ranks) on the board.
const Size = 8

// NumSquares is the length of the linear square index space.
const NumSquares = Size * Size

// Position is a square coordinate with an explicit on-board tag.
// The zero value is OffBoard.
type Position struct {
	file, rank int8
	onBoard    bool
}

// OffBoard is returned by any arithmetic that leaves the board.
var OffBoard = Position{}

// Vector is a (file, rank) displacement.
type Vector struct {
	DFile, DRank int
}

var (
	Up    = Vector{DFile: 0, DRank: 1}
	Down  = Vector{DFile: 0, DRank: -1}
	Left  = Vector{DFile: -1, DRank: 0}
	Right = Vector{DFile: 1, DRank: 0}

	UpLeft    = Vector{DFile: -1, DRank: 1}
	UpRight   = Vector{DFile: 1, DRank: 1}
	DownLeft  = Vector{DFile: -1, DRank: -1}
	DownRight = Vector{DFile: 1, DRank: -1}
)

// At returns the position for file and rank, or OffBoard.
func At(file, rank int) Position {
	if file < 0 || file >= Size || rank < 0 || rank >= Size {
		return OffBoard
	}
	return Position{file: int8(file), rank: int8(rank), onBoard: true}
}

func FromIndex(index int) Position {
	if index < 0 || index >= NumSquares {
		return OffBoard
	}
	return At(index%Size, index/Size)
}

// ToIndex is the linear index of (file, rank). It does not check bounds.
func ToIndex(file, rank int) int {
	return file + rank*Size
}

func (p Position) OnBoard() bool { return p.onBoard }

func (p Position) File() int { return int(p.file) }

func (p Position) Rank() int { return int(p.rank) }

// Index returns the linear index. Calling it on OffBoard is a programmer error.
func (p Position) Index() int {
	if !p.onBoard {
		panic("board: Index called on off-board position")
	}
	return ToIndex(int(p.file), int(p.rank))
}

// Step moves by (dFile, dRank). Leaving the board yields OffBoard; OffBoard stays OffBoard.
func (p Position) Step(dFile, dRank int) Position {
	if !p.onBoard {
		return OffBoard
	}
	return At(int(p.file)+dFile, int(p.rank)+dRank)
}

func (p Position) Add(v Vector) Position { return p.Step(v.DFile, v.DRank) }

func (p Position) Up() Position    { return p.Add(Up) }
func (p Position) Down() Position  { return p.Add(Down) }
func (p Position) Left() Position  { return p.Add(Left) }
func (p Position) Right() Position { return p.Add(Right) }

// String renders the square name, e.g. "e2", or "-" when off the board.
func (p Position) String() string {
	if !p.onBoard {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+rune(p.file), '1'+rune(p.rank))
}

// ParsePosition accepts a square name ("e2") or a linear index ("12").
func ParsePosition(s string) (Position, error) {
	if len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8' {
		return At(int(s[0]-'a'), int(s[1]-'1')), nil
	}
	if idx, err := strconv.Atoi(s); err == nil {
		if p := FromIndex(idx); p.OnBoard() {
			return p, nil
		}
	}
	return OffBoard, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
}
