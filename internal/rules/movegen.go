// Package rules generates, validates and applies pseudo-legal moves for the
// king-capture variant. Nothing here detects check: a game ends when a king is taken.
package rules

import "github.com/park285/kingcapture/internal/board"

var (
	kingSteps = []board.Vector{
		board.Right, board.UpRight, board.Up, board.UpLeft,
		board.Left, board.DownLeft, board.Down, board.DownRight,
	}
	knightJumps = []board.Vector{
		{DFile: 1, DRank: 2}, {DFile: 2, DRank: 1}, {DFile: -1, DRank: 2}, {DFile: -2, DRank: 1},
		{DFile: 1, DRank: -2}, {DFile: 2, DRank: -1}, {DFile: -1, DRank: -2}, {DFile: -2, DRank: -1},
	}
	rookRays   = []board.Vector{board.Up, board.Down, board.Left, board.Right}
	bishopRays = []board.Vector{board.UpRight, board.UpLeft, board.DownRight, board.DownLeft}
)

// pawn geometry per team: forward direction and the rank index of the starting row.
var pawnForward = [2]int{board.White: 1, board.Black: -1}
var pawnStartRank = [2]int{board.White: 1, board.Black: board.Size - 2}

// pawnCaptureFiles orders the diagonal captures from the mover's point of view:
// its left front first, then its right front.
var pawnCaptureFiles = [2][2]int{board.White: {-1, 1}, board.Black: {1, -1}}

// IsValidSquare reports whether pos may be a destination for team under flags:
// it must be on the board and either empty with FlagNone set, or held by the
// other team with FlagEnemy set.
func IsValidSquare(b *board.Board, pos board.Position, team board.Team, flags board.TeamFlag) bool {
	if !pos.OnBoard() {
		return false
	}
	sq := b.SquareAt(pos)
	if sq.Team == board.NoTeam {
		return flags.Has(board.FlagNone)
	}
	return sq.Team != team && flags.Has(board.FlagEnemy)
}

func addIfValid(b *board.Board, team board.Team, from, to board.Position, flags board.TeamFlag, moves []board.Move) []board.Move {
	if IsValidSquare(b, to, team, flags) {
		moves = append(moves, board.Move{From: from, To: to})
	}
	return moves
}

func addSteps(b *board.Board, team board.Team, from board.Position, steps []board.Vector, moves []board.Move) []board.Move {
	for _, v := range steps {
		moves = addIfValid(b, team, from, from.Add(v), board.DefaultFlags, moves)
	}
	return moves
}

// addRays walks each direction one square at a time. A ray stops at the edge, before
// a friendly piece, or right after the first occupied square it adds.
func addRays(b *board.Board, team board.Team, from board.Position, rays []board.Vector, moves []board.Move) []board.Move {
	for _, v := range rays {
		for to := from.Add(v); to.OnBoard(); to = to.Add(v) {
			sq := b.SquareAt(to)
			if sq.Team == team {
				break
			}
			moves = addIfValid(b, team, from, to, board.DefaultFlags, moves)
			if !sq.IsEmpty() {
				break
			}
		}
	}
	return moves
}

func KingMoves(b *board.Board, team board.Team, from board.Position, moves []board.Move) []board.Move {
	return addSteps(b, team, from, kingSteps, moves)
}

func KnightMoves(b *board.Board, team board.Team, from board.Position, moves []board.Move) []board.Move {
	return addSteps(b, team, from, knightJumps, moves)
}

func RookMoves(b *board.Board, team board.Team, from board.Position, moves []board.Move) []board.Move {
	return addRays(b, team, from, rookRays, moves)
}

func BishopMoves(b *board.Board, team board.Team, from board.Position, moves []board.Move) []board.Move {
	return addRays(b, team, from, bishopRays, moves)
}

func QueenMoves(b *board.Board, team board.Team, from board.Position, moves []board.Move) []board.Move {
	moves = RookMoves(b, team, from, moves)
	return BishopMoves(b, team, from, moves)
}

// PawnMoves adds the single push, the double push from the starting rank, and the two
// diagonal captures. Pushes only land on empty squares; the double push does not look
// at the square it passes over.
func PawnMoves(b *board.Board, team board.Team, from board.Position, moves []board.Move) []board.Move {
	if team != board.White && team != board.Black {
		return moves
	}
	dir := pawnForward[team]
	front := from.Step(0, dir)

	if from.Rank() == pawnStartRank[team] {
		moves = addIfValid(b, team, from, front.Step(0, dir), board.FlagNone, moves)
	}
	moves = addIfValid(b, team, from, front, board.FlagNone, moves)
	for _, df := range pawnCaptureFiles[team] {
		moves = addIfValid(b, team, from, front.Step(df, 0), board.FlagEnemy, moves)
	}
	return moves
}

// PieceMoves appends the moves of whatever piece stands on from, using that piece's team.
func PieceMoves(b *board.Board, from board.Position, moves []board.Move) []board.Move {
	if !from.OnBoard() {
		return moves
	}
	sq := b.SquareAt(from)
	switch sq.Piece {
	case board.King:
		return KingMoves(b, sq.Team, from, moves)
	case board.Queen:
		return QueenMoves(b, sq.Team, from, moves)
	case board.Rook:
		return RookMoves(b, sq.Team, from, moves)
	case board.Knight:
		return KnightMoves(b, sq.Team, from, moves)
	case board.Bishop:
		return BishopMoves(b, sq.Team, from, moves)
	case board.Pawn:
		return PawnMoves(b, sq.Team, from, moves)
	default:
		return moves
	}
}

// ValidMoves scans squares in index order and collects the moves of every piece
// owned by team.
func ValidMoves(b *board.Board, team board.Team) []board.Move {
	var moves []board.Move
	if !b.Ready() {
		return moves
	}
	for i := 0; i < board.NumSquares; i++ {
		pos := board.FromIndex(i)
		if b.SquareAt(pos).Team != team {
			continue
		}
		moves = PieceMoves(b, pos, moves)
	}
	return moves
}
