package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/park285/kingcapture/internal/board"
)

func decode(t *testing.T, raw []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func startBoard() *board.Board {
	b := board.New()
	b.Reset()
	return b
}

// corner returns the pixel just inside the top-left corner of pos, clear of any piece.
func corner(img image.Image, r *Renderer, pos board.Position) color.RGBA {
	rect := r.squareRect(pos, image.Point{X: sideMargin, Y: topMargin})
	return color.RGBAModel.Convert(img.At(rect.Min.X+1, rect.Min.Y+1)).(color.RGBA)
}

func TestRenderStartPosition(t *testing.T) {
	r := New()
	raw, err := r.RenderPNG(context.Background(), startBoard(), Options{Title: "test", Turn: "White to move", Score: &[2]uint{1, 2}})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img := decode(t, raw)
	want := image.Rect(0, 0, 64*8+sideMargin*2, 64*8+topMargin+bottomMargin)
	if img.Bounds() != want {
		t.Fatalf("bounds = %v, want %v", img.Bounds(), want)
	}
	if got := corner(img, r, board.At(4, 3)); got != lightSquare {
		t.Fatalf("e4 corner = %v, want light square", got)
	}
	if got := corner(img, r, board.At(0, 2)); got != darkSquare {
		t.Fatalf("a3 corner = %v, want dark square", got)
	}
}

func TestRenderHighlightsLastMove(t *testing.T) {
	b := startBoard()
	m := board.MoveFromIndices(12, 28)
	b.SetSquare(m.To, board.Pawn, board.White)
	b.SetSquare(m.From, board.NoPiece, board.NoTeam)

	r := New()
	plain := decode(t, mustRender(t, r, b, Options{}))
	lit := decode(t, mustRender(t, r, b, Options{Highlight: &m}))
	if corner(plain, r, m.To) == corner(lit, r, m.To) {
		t.Fatalf("highlight did not change the destination square")
	}
	if corner(plain, r, board.At(0, 0)) != corner(lit, r, board.At(0, 0)) {
		t.Fatalf("highlight leaked onto a1")
	}
}

func mustRender(t *testing.T, r *Renderer, b *board.Board, opts Options) []byte {
	t.Helper()
	raw, err := r.RenderPNG(context.Background(), b, opts)
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	return raw
}

func TestEveryPieceRasterises(t *testing.T) {
	for _, team := range []board.Team{board.White, board.Black} {
		for _, kind := range []board.PieceKind{board.King, board.Queen, board.Rook, board.Bishop, board.Knight, board.Pawn} {
			img, err := renderPieceImage(board.Square{Piece: kind, Team: team}, 48)
			if err != nil {
				t.Fatalf("%s %s: %v", team, kind, err)
			}
			_, _, _, a := img.At(24, 30).RGBA()
			if a == 0 {
				t.Fatalf("%s %s: centre pixel is transparent", team, kind)
			}
		}
	}
	if _, err := renderPieceImage(board.Empty, 48); err == nil {
		t.Fatalf("empty square should not render")
	}
}

func TestRenderErrors(t *testing.T) {
	if _, err := PNG(context.Background(), board.New(), Options{}); !errors.Is(err, ErrNoBoard) {
		t.Fatalf("err = %v, want ErrNoBoard", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := PNG(ctx, startBoard(), Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestSquareSizeOption(t *testing.T) {
	raw, err := New(WithSquareSize(20)).RenderPNG(context.Background(), startBoard(), Options{})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	if w := decode(t, raw).Bounds().Dx(); w != 20*8+sideMargin*2 {
		t.Fatalf("width = %d", w)
	}
}
