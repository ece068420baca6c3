// Package game holds the turn/score state machine that drives the rules engine.
package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/kingcapture/internal/board"
	"github.com/park285/kingcapture/internal/obslog"
	"github.com/park285/kingcapture/internal/rules"
)

var ErrInvalidSetup = errors.New("invalid setup")

// Session owns the board, the side to move and the score counter for one host.
// It is not safe for concurrent use; hosts serialise calls.
type Session struct {
	id     string
	board  *board.Board
	turn   board.Team
	scores []uint

	observers      []observerEntry
	nextObserverID int

	logger *zap.Logger
}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) {
		if v := strings.TrimSpace(id); v != "" {
			s.id = v
		}
	}
}

// NewSession returns a session with an unallocated board. Call PrepareGame before play.
func NewSession(opts ...Option) *Session {
	s := &Session{
		id:     uuid.NewString(),
		board:  board.New(),
		turn:   board.White,
		logger: obslog.L(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session_id", s.id))
	return s
}

func (s *Session) ID() string { return s.id }

// PrepareGame resets the board to the starting setup with White to move. The score
// slots are created on the first call whatever resetScore says, and zeroed when
// resetScore is true.
func (s *Session) PrepareGame(resetScore bool) {
	s.board.Reset()
	s.turn = board.White
	if s.scores == nil || resetScore {
		s.scores = []uint{0, 0}
	}
}

// Setup replaces the board with a copy of b and sets the side to move. Scores are
// created if needed and otherwise kept.
func (s *Session) Setup(b *board.Board, toMove board.Team) error {
	if !b.Ready() {
		return fmt.Errorf("%w: board has no squares", ErrInvalidSetup)
	}
	if toMove != board.White && toMove != board.Black {
		return fmt.Errorf("%w: side to move must be white or black", ErrInvalidSetup)
	}
	s.board = b.Clone()
	s.turn = toMove
	if s.scores == nil {
		s.scores = []uint{0, 0}
	}
	return nil
}

// Outcome reports what PlayTurn did. The zero value means the move was rejected.
type Outcome struct {
	Accepted bool
	Move     board.Move
	Mover    board.Team
	Captured board.Square
	// KingCaptured is set when the move won the game; the board has already been
	// reset and White is to move.
	KingCaptured bool
}

// PlayTurn validates m for the side to move and, if legal, applies it. A rejected
// move changes nothing and notifies nobody. On a king capture the mover scores,
// observers get ScoreUpdated, and a new game starts with scores kept. Every accepted
// move ends with TurnChanged.
func (s *Session) PlayTurn(m board.Move) Outcome {
	if s.scores == nil || !s.board.Ready() {
		return Outcome{}
	}
	mover := s.turn
	if !rules.IsValidMove(s.board, mover, m) {
		s.logger.Debug("turn_rejected", zap.String("team", mover.String()), zap.Stringer("move", m))
		return Outcome{}
	}

	out := Outcome{Accepted: true, Move: m, Mover: mover, Captured: s.board.SquareAt(m.To)}
	rules.PlayUnsafeMove(s.board, m)

	opponent := mover.Opponent()
	if rules.DoesTeamLose(s.board, opponent) {
		out.KingCaptured = true
		s.scores[mover]++
		s.logger.Info("game_won",
			zap.String("winner", mover.String()),
			zap.Uint("white_score", s.scores[board.White]),
			zap.Uint("black_score", s.scores[board.Black]),
		)
		s.notifyScore()
		s.PrepareGame(false)
	} else {
		s.turn = opponent
	}

	s.logger.Debug("turn_accepted",
		zap.String("team", mover.String()),
		zap.Stringer("move", m),
		zap.String("captured", out.Captured.Piece.String()),
	)
	s.notifyTurn()
	return out
}

// Announce pushes the current turn and scores to every observer, as a host does
// once after the first PrepareGame.
func (s *Session) Announce() {
	s.notifyTurn()
	s.notifyScore()
}

// IsPlayerTurn reports whether White is to move.
func (s *Session) IsPlayerTurn() bool { return s.turn == board.White }

func (s *Session) Turn() board.Team { return s.turn }

// Square returns the square at pos, or Empty when pos is off the board or no game
// has been prepared.
func (s *Session) Square(pos board.Position) board.Square {
	if !pos.OnBoard() || !s.board.Ready() {
		return board.Empty
	}
	return s.board.SquareAt(pos)
}

func (s *Session) Score(team board.Team) uint {
	if team != board.White && team != board.Black || s.scores == nil {
		return 0
	}
	return s.scores[team]
}

func (s *Session) Scores() (white, black uint) {
	return s.Score(board.White), s.Score(board.Black)
}

// ValidMoves lists team's pseudo-legal moves on the current board.
func (s *Session) ValidMoves(team board.Team) []board.Move {
	return rules.ValidMoves(s.board, team)
}

// Snapshot returns a copy of the board that collaborators may read freely.
func (s *Session) Snapshot() *board.Board { return s.board.Clone() }
