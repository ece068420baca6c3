// Package match plays opponents against each other on a session until a number of
// games has been decided.
package match

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/kingcapture/internal/board"
	"github.com/park285/kingcapture/internal/game"
	"github.com/park285/kingcapture/internal/opponent"
)

var (
	ErrNoPlayers   = errors.New("match needs two players")
	ErrIllegalMove = errors.New("player produced an illegal move")
)

const DefaultMaxPlies = 400

// Result is the outcome of one game from White's point of view.
type Result int

const (
	Win  Result = +1
	Draw Result = 0
	Loss Result = -1
)

// GameLostBy maps the losing team to the game's Result.
var GameLostBy = [2]Result{
	board.White: Loss,
	board.Black: Win,
}

func (r Result) String() string {
	switch r {
	case Win:
		return "1-0"
	case Draw:
		return "1/2-1/2"
	case Loss:
		return "0-1"
	default:
		return "?-?"
	}
}

type Config struct {
	// Players[board.White] moves White, Players[board.Black] moves Black.
	Players  [2]opponent.Opponent
	Games    int
	MaxPlies int

	Logger *zap.Logger

	// OnPly, when set, is called after every accepted move.
	OnPly func(number int, out game.Outcome)
}

// GameRecord describes one finished game.
type GameRecord struct {
	Number int
	Result Result
	Reason string
	Moves  []board.Move
}

func (g GameRecord) Plies() int { return len(g.Moves) }

type Summary struct {
	Games      []GameRecord
	Wins       int
	Draws      int
	Losses     int
	WhiteScore uint
	BlackScore uint
}

func (s *Summary) add(rec GameRecord) {
	s.Games = append(s.Games, rec)
	switch rec.Result {
	case Win:
		s.Wins++
	case Loss:
		s.Losses++
	default:
		s.Draws++
	}
}

// Run prepares s with fresh scores and plays cfg.Games games on it. A king capture
// decides a game, an illegal move loses it, and reaching MaxPlies or running out of
// moves draws it. Run stops early with ctx's error when ctx is done.
func Run(ctx context.Context, s *game.Session, cfg Config) (Summary, error) {
	var sum Summary
	if cfg.Players[board.White] == nil || cfg.Players[board.Black] == nil {
		return sum, ErrNoPlayers
	}
	if cfg.Games <= 0 {
		cfg.Games = 1
	}
	if cfg.MaxPlies <= 0 {
		cfg.MaxPlies = DefaultMaxPlies
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s.PrepareGame(true)
	for n := 1; n <= cfg.Games; n++ {
		rec, err := playGame(ctx, s, cfg, n)
		if err != nil {
			return sum, err
		}
		sum.add(rec)
		logger.Info("match_game_finished",
			zap.Int("game", n),
			zap.String("result", rec.Result.String()),
			zap.String("reason", rec.Reason),
			zap.Int("plies", rec.Plies()),
		)
	}
	sum.WhiteScore, sum.BlackScore = s.Scores()
	return sum, nil
}

func playGame(ctx context.Context, s *game.Session, cfg Config, n int) (GameRecord, error) {
	rec := GameRecord{Number: n}
	for len(rec.Moves) < cfg.MaxPlies {
		team := s.Turn()
		m, err := cfg.Players[team].ComputeMove(ctx, s.Snapshot(), team)
		switch {
		case errors.Is(err, opponent.ErrNoMoves):
			rec.Result, rec.Reason = Draw, fmt.Sprintf("%s has no moves", team)
			s.PrepareGame(false)
			return rec, nil
		case err != nil:
			return rec, fmt.Errorf("game %d: %w", n, err)
		}

		out := s.PlayTurn(m)
		if !out.Accepted {
			rec.Result, rec.Reason = GameLostBy[team], fmt.Sprintf("%s: %s %s", team, ErrIllegalMove, m)
			s.PrepareGame(false)
			return rec, nil
		}
		rec.Moves = append(rec.Moves, m)
		if cfg.OnPly != nil {
			cfg.OnPly(n, out)
		}
		if out.KingCaptured {
			rec.Result = GameLostBy[out.Mover.Opponent()]
			rec.Reason = fmt.Sprintf("%s king captured", out.Mover.Opponent())
			return rec, nil
		}
	}
	rec.Result, rec.Reason = Draw, "ply limit"
	s.PrepareGame(false)
	return rec, nil
}
