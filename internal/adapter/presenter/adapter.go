package presenter

import (
	"github.com/park285/kingcapture/internal/board"
	"github.com/park285/kingcapture/internal/game"
	"github.com/park285/kingcapture/pkg/kingdto"
)

func index(p board.Position) int {
	if !p.OnBoard() {
		return -1
	}
	return p.Index()
}

// ToDTOMove describes m on the board it is about to be played on; b may be nil.
func ToDTOMove(b *board.Board, m board.Move) kingdto.MoveDTO {
	dto := kingdto.MoveDTO{From: index(m.From), To: index(m.To), UCI: m.String()}
	if b.Ready() && m.To.OnBoard() {
		if target := b.SquareAt(m.To); !target.IsEmpty() {
			dto.Captures = target.Piece.String()
		}
	}
	return dto
}

func ToDTOOutcome(out game.Outcome) kingdto.MoveDTO {
	dto := kingdto.MoveDTO{From: index(out.Move.From), To: index(out.Move.To), UCI: out.Move.String()}
	if out.Accepted && !out.Captured.IsEmpty() {
		dto.Captures = out.Captured.Piece.String()
	}
	return dto
}

func ToDTOMoves(b *board.Board, team board.Team, moves []board.Move) kingdto.MovesResponse {
	resp := kingdto.MovesResponse{Team: team.String(), Moves: make([]kingdto.MoveDTO, 0, len(moves))}
	for _, m := range moves {
		resp.Moves = append(resp.Moves, ToDTOMove(b, m))
	}
	return resp
}

// ToDTOState snapshots s. last, when set, is reported as the most recent move.
func ToDTOState(s *game.Session, last *game.Outcome) kingdto.StateResponse {
	snap := s.Snapshot()
	white, black := s.Scores()
	st := kingdto.StateResponse{
		SessionID:   s.ID(),
		WhiteToMove: s.IsPlayerTurn(),
		Turn:        s.Turn().String(),
		Score:       kingdto.ScoreDTO{White: white, Black: black},
		Squares:     []kingdto.SquareDTO{},
	}
	if !snap.Ready() {
		return st
	}
	st.Placement = snap.Placement()
	for i := 0; i < board.NumSquares; i++ {
		p := board.FromIndex(i)
		sq := snap.SquareAt(p)
		if sq.IsEmpty() {
			continue
		}
		st.Squares = append(st.Squares, kingdto.SquareDTO{
			Index: i,
			Name:  p.String(),
			Piece: sq.Piece.String(),
			Team:  sq.Team.String(),
		})
	}
	if last != nil && last.Accepted {
		mv := ToDTOOutcome(*last)
		st.LastMove = &mv
	}
	return st
}
