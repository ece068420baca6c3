package board

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const startPlacement = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"

func TestResetStartingSetup(t *testing.T) {
	b := New()
	if b.Ready() {
		t.Fatalf("new board should have no squares")
	}
	b.Reset()
	if len(b.Squares()) != NumSquares {
		t.Fatalf("want %d squares, got %d", NumSquares, len(b.Squares()))
	}

	want := []PieceKind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for file := 0; file < Size; file++ {
		if sq := b.SquareAt(At(file, 0)); sq != (Square{want[file], White}) {
			t.Fatalf("white back rank file %d = %+v", file, sq)
		}
		if sq := b.SquareAt(At(file, 1)); sq != (Square{Pawn, White}) {
			t.Fatalf("white pawn file %d = %+v", file, sq)
		}
		if sq := b.SquareAt(At(file, 6)); sq != (Square{Pawn, Black}) {
			t.Fatalf("black pawn file %d = %+v", file, sq)
		}
		if sq := b.SquareAt(At(file, 7)); sq != (Square{want[file], Black}) {
			t.Fatalf("black back rank file %d = %+v", file, sq)
		}
		for rank := 2; rank < 6; rank++ {
			if sq := b.SquareAt(At(file, rank)); sq != Empty {
				t.Fatalf("square %s should be empty, got %+v", At(file, rank), sq)
			}
		}
	}
	if got := b.Placement(); got != startPlacement {
		t.Fatalf("Placement() = %q", got)
	}
}

func TestResetIdempotent(t *testing.T) {
	once := New()
	once.Reset()

	twice := New()
	twice.Reset()
	twice.SetSquare(At(4, 3), Queen, Black)
	twice.SetSquare(At(4, 1), NoPiece, NoTeam)
	twice.Reset()
	twice.Reset()

	if diff := cmp.Diff(once.Squares(), twice.Squares()); diff != "" {
		t.Fatalf("reset mismatch (-once +twice):\n%s", diff)
	}
}

func TestResetReusesStorage(t *testing.T) {
	b := New()
	b.Reset()
	before := &b.squares[0]
	b.Reset()
	if &b.squares[0] != before {
		t.Fatalf("second Reset reallocated squares")
	}
}

func TestSetSquareKeepsEmptyInvariant(t *testing.T) {
	b := New()
	b.Clear()
	p := At(3, 3)

	b.SetSquare(p, Rook, NoTeam)
	if got := b.SquareAt(p); got != Empty {
		t.Fatalf("team none must empty the square, got %+v", got)
	}
	b.SetSquare(p, NoPiece, White)
	if got := b.SquareAt(p); got != Empty {
		t.Fatalf("piece none must empty the square, got %+v", got)
	}
	b.SetSquare(p, Knight, Black)
	if got := b.SquareAt(p); got != (Square{Knight, Black}) {
		t.Fatalf("got %+v", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := New()
	b.Reset()
	c := b.Clone()
	c.SetSquare(At(0, 0), NoPiece, NoTeam)
	if b.SquareAt(At(0, 0)) != (Square{Rook, White}) {
		t.Fatalf("mutating clone changed original")
	}
	if New().Clone().Ready() {
		t.Fatalf("clone of unready board should be unready")
	}
}

func TestPlacementRoundTrip(t *testing.T) {
	for _, s := range []string{
		startPlacement,
		"4k3/8/8/8/8/8/8/4K3",
		"r3k2r/8/2n5/3Pp3/8/5B2/8/R3K2R",
	} {
		b, err := ParsePlacement(s)
		if err != nil {
			t.Fatalf("ParsePlacement(%q): %v", s, err)
		}
		if got := b.Placement(); got != s {
			t.Fatalf("round trip %q -> %q", s, got)
		}
	}
}

func TestParsePlacementErrors(t *testing.T) {
	for _, s := range []string{
		"",
		"8/8/8/8/8/8/8",
		"9/8/8/8/8/8/8/8",
		"rnbqkbnrr/8/8/8/8/8/8/8",
		"x7/8/8/8/8/8/8/8",
		"7/8/8/8/8/8/8/8",
	} {
		if _, err := ParsePlacement(s); !errors.Is(err, ErrInvalidPlacement) {
			t.Fatalf("ParsePlacement(%q) err = %v", s, err)
		}
	}
}

func TestString(t *testing.T) {
	b, err := ParsePlacement("4k3/8/8/8/8/8/8/4K3")
	if err != nil {
		t.Fatalf("ParsePlacement: %v", err)
	}
	want := "8 . . . . k . . .\n" +
		"7 . . . . . . . .\n" +
		"6 . . . . . . . .\n" +
		"5 . . . . . . . .\n" +
		"4 . . . . . . . .\n" +
		"3 . . . . . . . .\n" +
		"2 . . . . . . . .\n" +
		"1 . . . . K . . .\n" +
		"  a b c d e f g h\n"
	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Fatalf("String() mismatch:\n%s", diff)
	}
}
