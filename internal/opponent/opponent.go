// Package opponent provides move producers for the side the computer plays.
package opponent

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/park285/kingcapture/internal/board"
	"github.com/park285/kingcapture/internal/rules"
)

var (
	ErrNoMoves         = errors.New("no moves available")
	ErrUnknownStrategy = errors.New("unknown opponent strategy")
)

// Opponent produces a move for team on a board snapshot. Implementations must treat
// the board as read-only.
type Opponent interface {
	ComputeMove(ctx context.Context, b *board.Board, team board.Team) (board.Move, error)
}

var pieceValues = map[board.PieceKind]int{
	board.Pawn:   1,
	board.Knight: 3,
	board.Bishop: 3,
	board.Rook:   5,
	board.Queen:  9,
	board.King:   1000,
}

type picker struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func newPicker(seed int64) *picker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &picker{rand: rand.New(rand.NewSource(seed))}
}

func (p *picker) intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rand.Intn(n)
}

func candidates(ctx context.Context, b *board.Board, team board.Team) ([]board.Move, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	moves := rules.ValidMoves(b, team)
	if len(moves) == 0 {
		return nil, fmt.Errorf("%s: %w", team, ErrNoMoves)
	}
	return moves, nil
}

// Random plays a uniformly random pseudo-legal move.
type Random struct {
	*picker
}

// NewRandom seeds from seed, or from the clock when seed is 0.
func NewRandom(seed int64) *Random {
	return &Random{picker: newPicker(seed)}
}

func (r *Random) ComputeMove(ctx context.Context, b *board.Board, team board.Team) (board.Move, error) {
	moves, err := candidates(ctx, b, team)
	if err != nil {
		return board.Move{}, err
	}
	return moves[r.intn(len(moves))], nil
}

// Greedy takes the most valuable piece it can reach, a king above all, and
// otherwise moves at random. Ties are broken at random.
type Greedy struct {
	*picker
}

func NewGreedy(seed int64) *Greedy {
	return &Greedy{picker: newPicker(seed)}
}

func (g *Greedy) ComputeMove(ctx context.Context, b *board.Board, team board.Team) (board.Move, error) {
	moves, err := candidates(ctx, b, team)
	if err != nil {
		return board.Move{}, err
	}
	best := 0
	var top []board.Move
	for _, m := range moves {
		v := pieceValues[b.SquareAt(m.To).Piece]
		switch {
		case v > best:
			best = v
			top = append(top[:0], m)
		case v == best:
			top = append(top, m)
		}
	}
	return top[g.intn(len(top))], nil
}

// New builds an opponent by strategy name.
func New(strategy string, seed int64) (Opponent, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "random":
		return NewRandom(seed), nil
	case "greedy", "":
		return NewGreedy(seed), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}
