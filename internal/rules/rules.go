package rules

import "github.com/park285/kingcapture/internal/board"

// IsValidMove regenerates team's moves and checks membership. No caching: an 8x8
// board is cheap to rescan.
func IsValidMove(b *board.Board, team board.Team, m board.Move) bool {
	if !m.From.OnBoard() || !m.To.OnBoard() {
		return false
	}
	for _, v := range ValidMoves(b, team) {
		if v == m {
			return true
		}
	}
	return false
}

// PlayUnsafeMove moves the From square onto To and empties From. It checks nothing;
// callers must gate it with IsValidMove.
func PlayUnsafeMove(b *board.Board, m board.Move) {
	sq := b.SquareAt(m.From)
	b.SetSquare(m.To, sq.Piece, sq.Team)
	b.SetSquare(m.From, board.NoPiece, board.NoTeam)
}

// DoesTeamLose reports whether team has no king left on the board.
func DoesTeamLose(b *board.Board, team board.Team) bool {
	for i := 0; i < board.NumSquares; i++ {
		if sq := b.SquareAt(board.FromIndex(i)); sq.Team == team && sq.Piece == board.King {
			return false
		}
	}
	return true
}
