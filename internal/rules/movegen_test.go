package rules

import (
	"sort"
	"testing"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/park285/kingcapture/internal/board"
)

func mustBoard(t *testing.T, placement string) *board.Board {
	t.Helper()
	b, err := board.ParsePlacement(placement)
	if err != nil {
		t.Fatalf("ParsePlacement(%q): %v", placement, err)
	}
	return b
}

func sq(t *testing.T, name string) board.Position {
	t.Helper()
	p, err := board.ParsePosition(name)
	if err != nil {
		t.Fatalf("ParsePosition(%q): %v", name, err)
	}
	return p
}

// destinations returns the sorted square names reachable from the given moves.
func destinations(moves []board.Move) []string {
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.To.String())
	}
	sort.Strings(out)
	return out
}

func moveStrings(moves []board.Move) []string {
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.String())
	}
	sort.Strings(out)
	return out
}

func TestStartPositionMoveCount(t *testing.T) {
	b := board.New()
	b.Reset()
	for _, team := range []board.Team{board.White, board.Black} {
		if got := len(ValidMoves(b, team)); got != 20 {
			t.Fatalf("%s has %d moves from the start, want 20", team, got)
		}
	}
	if got := ValidMoves(b, board.NoTeam); len(got) != 0 {
		t.Fatalf("no-team should have no moves, got %v", got)
	}
}

// In quiet positions without castling rights or checks, pseudo-legal and legal
// move sets coincide, so a full chess library can serve as a reference. The one
// expected difference is the pawn double push over an occupied square, which the
// reference rejects and this generator keeps; those are listed per line.
func TestMatchesReferenceInQuietPositions(t *testing.T) {
	tests := []struct {
		line  []string
		jumps []string
	}{
		{line: nil},
		{line: []string{"e2e4", "e7e5"}},
		{line: []string{"e2e4", "e7e5", "g1f3", "b8c6"}, jumps: []string{"f2f4"}},
		{line: []string{"d2d4", "d7d5", "c2c4", "g8f6"}},
		{line: []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4"}, jumps: []string{"c7c5"}},
	}
	for _, tt := range tests {
		ref := nchess.NewGame()
		b := board.New()
		b.Reset()
		for _, uci := range tt.line {
			if err := ref.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
				t.Fatalf("reference rejected %s: %v", uci, err)
			}
			from, _ := board.ParsePosition(uci[:2])
			to, _ := board.ParsePosition(uci[2:])
			m := board.Move{From: from, To: to}
			team := b.SquareAt(from).Team
			if !IsValidMove(b, team, m) {
				t.Fatalf("line %v: %s rejected", tt.line, uci)
			}
			PlayUnsafeMove(b, m)
		}

		want := []string{}
		for _, mv := range ref.ValidMoves() {
			from := board.FromIndex(int(mv.S1()))
			to := board.FromIndex(int(mv.S2()))
			want = append(want, board.Move{From: from, To: to}.String())
		}
		sort.Strings(want)

		team := board.White
		if len(tt.line)%2 == 1 {
			team = board.Black
		}
		var ours, jumps []board.Move
		for _, m := range ValidMoves(b, team) {
			if isJumpingDoublePush(b, m) {
				jumps = append(jumps, m)
				continue
			}
			ours = append(ours, m)
		}
		if diff := cmp.Diff(want, moveStrings(ours)); diff != "" {
			t.Fatalf("line %v: move set mismatch (-reference +ours):\n%s", tt.line, diff)
		}
		if diff := cmp.Diff(tt.jumps, moveStrings(jumps), cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("line %v: double pushes over a piece (-want +got):\n%s", tt.line, diff)
		}
	}
}

// isJumpingDoublePush reports a pawn double push whose passed-over square is occupied.
func isJumpingDoublePush(b *board.Board, m board.Move) bool {
	if b.SquareAt(m.From).Piece != board.Pawn || m.From.File() != m.To.File() {
		return false
	}
	d := m.To.Rank() - m.From.Rank()
	if d != 2 && d != -2 {
		return false
	}
	return !b.SquareAt(m.From.Step(0, d/2)).IsEmpty()
}

func TestKingMoves(t *testing.T) {
	b := mustBoard(t, "8/8/8/8/8/8/3p4/4K3")
	got := destinations(KingMoves(b, board.White, sq(t, "e1"), nil))
	want := []string{"d1", "d2", "e2", "f1", "f2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("king moves (-want +got):\n%s", diff)
	}

	b = mustBoard(t, "8/8/8/8/8/8/PP6/KP6")
	if got := KingMoves(b, board.White, sq(t, "a1"), nil); len(got) != 0 {
		t.Fatalf("boxed king should have no moves, got %v", moveStrings(got))
	}
}

func TestKnightMoves(t *testing.T) {
	b := mustBoard(t, "8/8/8/8/8/1P6/2p5/N7")
	got := destinations(KnightMoves(b, board.White, sq(t, "a1"), nil))
	if diff := cmp.Diff([]string{"c2"}, got); diff != "" {
		t.Fatalf("corner knight (-want +got):\n%s", diff)
	}

	b = mustBoard(t, "8/8/8/3N4/8/8/8/8")
	got = destinations(KnightMoves(b, board.White, sq(t, "d5"), nil))
	want := []string{"b4", "b6", "c3", "c7", "e3", "e7", "f4", "f6"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("central knight (-want +got):\n%s", diff)
	}
}

func TestRookRaysStopAtFirstPiece(t *testing.T) {
	// d4 rook; own pawn on d6, enemy pawn on d2, enemy knight on b4, open to the east.
	b := mustBoard(t, "8/8/3P4/8/1n1R4/8/3p4/8")
	got := destinations(RookMoves(b, board.White, sq(t, "d4"), nil))
	want := []string{"b4", "c4", "d2", "d3", "d5", "e4", "f4", "g4", "h4"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rook rays (-want +got):\n%s", diff)
	}
}

func TestRookDoesNotWrapAroundEdges(t *testing.T) {
	b := mustBoard(t, "8/8/8/8/8/8/8/7R")
	got := destinations(RookMoves(b, board.White, sq(t, "h1"), nil))
	want := []string{"a1", "b1", "c1", "d1", "e1", "f1", "g1", "h2", "h3", "h4", "h5", "h6", "h7", "h8"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("edge rook (-want +got):\n%s", diff)
	}
}

func TestBishopRays(t *testing.T) {
	b := mustBoard(t, "8/8/5p2/8/3B4/8/1P6/8")
	got := destinations(BishopMoves(b, board.White, sq(t, "d4"), nil))
	want := []string{"a7", "b6", "c3", "c5", "e3", "e5", "f2", "f6", "g1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("bishop rays (-want +got):\n%s", diff)
	}
}

func TestQueenIsRookPlusBishop(t *testing.T) {
	b := mustBoard(t, "8/1p6/8/3Q2P1/8/8/3r4/8")
	from := sq(t, "d5")
	union := RookMoves(b, board.White, from, nil)
	union = BishopMoves(b, board.White, from, union)
	if diff := cmp.Diff(moveStrings(union), moveStrings(QueenMoves(b, board.White, from, nil))); diff != "" {
		t.Fatalf("queen (-rook+bishop +queen):\n%s", diff)
	}
}

func TestRaysNeverPassOccupiedSquare(t *testing.T) {
	b := board.New()
	b.Reset()
	PlayUnsafeMove(b, board.Move{From: sq(t, "d1"), To: sq(t, "d4")})
	PlayUnsafeMove(b, board.Move{From: sq(t, "d7"), To: sq(t, "d6")})
	for _, m := range QueenMoves(b, board.White, sq(t, "d4"), nil) {
		df := m.To.File() - m.From.File()
		dr := m.To.Rank() - m.From.Rank()
		stepF, stepR := sign(df), sign(dr)
		for p := m.From.Step(stepF, stepR); p != m.To; p = p.Step(stepF, stepR) {
			if !b.SquareAt(p).IsEmpty() {
				t.Fatalf("%s passes occupied %s", m, p)
			}
		}
		if target := b.SquareAt(m.To); target.Team == board.White {
			t.Fatalf("%s lands on own piece", m)
		}
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func TestPawnMoves(t *testing.T) {
	tests := []struct {
		name      string
		placement string
		team      board.Team
		from      string
		want      []string
	}{
		{"white start rank", "8/8/8/8/8/8/4P3/8", board.White, "e2", []string{"e3", "e4"}},
		{"black start rank", "8/4p3/8/8/8/8/8/8", board.Black, "e7", []string{"e5", "e6"}},
		{"white off start rank", "8/8/8/8/8/4P3/8/8", board.White, "e3", []string{"e4"}},
		{"black off start rank", "8/8/4p3/8/8/8/8/8", board.Black, "e6", []string{"e5"}},
		{"blocked front", "8/8/8/8/8/4n3/4P3/8", board.White, "e2", []string{"e4"}},
		{"double target occupied", "8/8/8/8/4n3/8/4P3/8", board.White, "e2", []string{"e3"}},
		{"captures", "8/8/8/8/3p1N2/4P3/8/8", board.White, "e3", []string{"d4", "e4"}},
		{"no forward capture", "8/8/8/8/4p3/4P3/8/8", board.White, "e3", nil},
		{"black captures", "8/8/8/4p3/3P1P2/8/8/8", board.Black, "e5", []string{"d4", "e4", "f4"}},
		{"edge file", "8/8/8/8/8/1p6/P7/8", board.White, "a2", []string{"a3", "a4", "b3"}},
		{"black near first rank", "8/8/8/8/8/8/p7/1N6", board.Black, "a2", []string{"a1", "b1"}},
		{"last rank", "4P3/8/8/8/8/8/8/8", board.White, "e8", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustBoard(t, tt.placement)
			got := destinations(PawnMoves(b, tt.team, sq(t, tt.from), nil))
			if len(tt.want) == 0 && len(got) == 0 {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("pawn moves (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPawnCaptureOrderFollowsMover(t *testing.T) {
	tests := []struct {
		placement string
		team      board.Team
		from      string
		want      []string
	}{
		{"8/8/8/8/3ppp2/4P3/8/8", board.White, "e3", []string{"e3d4", "e3f4"}},
		{"8/8/8/4p3/3PPP2/8/8/8", board.Black, "e5", []string{"e5f4", "e5d4"}},
	}
	for _, tt := range tests {
		b := mustBoard(t, tt.placement)
		var got []string
		for _, m := range PawnMoves(b, tt.team, sq(t, tt.from), nil) {
			got = append(got, m.String())
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Fatalf("%s capture order (-want +got):\n%s", tt.team, diff)
		}
	}
}

func TestPieceMovesEmptyOrigin(t *testing.T) {
	b := board.New()
	b.Reset()
	if got := PieceMoves(b, sq(t, "e4"), nil); len(got) != 0 {
		t.Fatalf("empty square produced %v", got)
	}
	if got := PieceMoves(b, board.OffBoard, nil); len(got) != 0 {
		t.Fatalf("off-board origin produced %v", got)
	}
}

func TestValidMovesOrderFollowsSquareIndex(t *testing.T) {
	b := board.New()
	b.Reset()
	moves := ValidMoves(b, board.White)
	for i := 1; i < len(moves); i++ {
		if moves[i].From.Index() < moves[i-1].From.Index() {
			t.Fatalf("moves not grouped by ascending origin: %s before %s", moves[i-1], moves[i])
		}
	}
	seen := map[board.Move]bool{}
	for _, m := range moves {
		if seen[m] {
			t.Fatalf("duplicate move %s", m)
		}
		seen[m] = true
	}
}
