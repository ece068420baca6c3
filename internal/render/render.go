// Package render draws a board snapshot as a PNG with an optional score/turn HUD.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/park285/kingcapture/internal/board"
)

var ErrNoBoard = errors.New("board has no squares")

type Options struct {
	// Highlight marks the last move: an overlay for White, an arrow for Black.
	Highlight *board.Move
	// Marker tints one square, e.g. the square a player selected.
	Marker *board.Position

	Title string
	Turn  string
	// Score, when set, fills the score panel as "white-black".
	Score *[2]uint
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, b *board.Board, opts Options) ([]byte, error)
}

type Renderer struct {
	squareSize int
	face       font.Face
}

type Option func(*Renderer)

// WithSquareSize sets the edge of one square in pixels.
func WithSquareSize(px int) Option {
	return func(r *Renderer) {
		if px >= 16 {
			r.squareSize = px
		}
	}
}

func New(opts ...Option) *Renderer {
	r := &Renderer{squareSize: 64, face: basicfont.Face7x13}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ BoardRenderer = (*Renderer)(nil)

// PNG renders b with the default renderer.
func PNG(ctx context.Context, b *board.Board, opts Options) ([]byte, error) {
	return New().RenderPNG(ctx, b, opts)
}

const (
	sideMargin    = 32
	topMargin     = 88
	bottomMargin  = 32
	panelHeight   = 30
	gapToBoard    = 18
	panelRadius   = 10
	panelPaddingX = 18
	titleMinWidth = 160
	scoreMinWidth = 80
	turnMinWidth  = 120
	shadowOffsetY = 5
)

func (r *Renderer) RenderPNG(ctx context.Context, b *board.Board, opts Options) ([]byte, error) {
	if !b.Ready() {
		return nil, ErrNoBoard
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	boardSize := r.squareSize * board.Size
	origin := image.Point{X: sideMargin, Y: topMargin}
	boardRect := image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize)
	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	r.drawHUD(img, opts, boardRect)
	r.drawSquares(img, origin)
	if err := r.drawPieces(img, b, origin); err != nil {
		return nil, err
	}
	r.drawHighlight(img, b, opts.Highlight, origin)
	if opts.Marker != nil && opts.Marker.OnBoard() {
		drawSquareOverlay(img, r.squareRect(*opts.Marker, origin), markerColor)
	}
	r.drawCoordinates(img, origin)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	backgroundColor        = color.RGBA{R: 20, G: 22, B: 33, A: 255}
	lightSquare            = color.RGBA{233, 207, 163, 255}
	darkSquare             = color.RGBA{187, 136, 96, 255}
	markerColor            = color.NRGBA{R: 182, G: 184, B: 190, A: 130}
	whiteMoveHighlightFill = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	blackMoveArrow         = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	neutralMoveArrow       = color.NRGBA{R: 182, G: 184, B: 190, A: 140}
	hudPanelColor          = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudTurnPanelColor      = color.NRGBA{R: 32, G: 35, B: 52, A: 245}
	hudShadowColor         = color.NRGBA{0, 0, 0, 50}
	hudTextPrimary         = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTurnTextColor       = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	coordinateTextColor    = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

// squareRect maps a position to pixels with rank 8 at the top.
func (r *Renderer) squareRect(p board.Position, origin image.Point) image.Rectangle {
	x := origin.X + p.File()*r.squareSize
	y := origin.Y + (board.Size-1-p.Rank())*r.squareSize
	return image.Rect(x, y, x+r.squareSize, y+r.squareSize)
}

func (r *Renderer) drawSquares(dst *image.RGBA, origin image.Point) {
	for i := 0; i < board.NumSquares; i++ {
		p := board.FromIndex(i)
		clr := lightSquare
		if (p.File()+p.Rank())%2 == 0 {
			clr = darkSquare
		}
		imagedraw.Draw(dst, r.squareRect(p, origin), image.NewUniform(clr), image.Point{}, imagedraw.Src)
	}
}

func (r *Renderer) drawPieces(dst *image.RGBA, b *board.Board, origin image.Point) error {
	for i := 0; i < board.NumSquares; i++ {
		p := board.FromIndex(i)
		sq := b.SquareAt(p)
		if sq.IsEmpty() {
			continue
		}
		img, err := renderPieceImage(sq, r.squareSize)
		if err != nil {
			return err
		}
		imagedraw.Draw(dst, r.squareRect(p, origin), img, image.Point{}, imagedraw.Over)
	}
	return nil
}

// drawHighlight colours by the team of the piece now on To, falling back to From
// for a snapshot taken before the move.
func (r *Renderer) drawHighlight(img *image.RGBA, b *board.Board, m *board.Move, origin image.Point) {
	if m == nil || !m.From.OnBoard() || !m.To.OnBoard() {
		return
	}
	mover := b.SquareAt(m.To).Team
	if mover == board.NoTeam {
		mover = b.SquareAt(m.From).Team
	}
	from, to := r.squareRect(m.From, origin), r.squareRect(m.To, origin)
	switch mover {
	case board.White:
		drawSquareOverlay(img, from, whiteMoveHighlightFill)
		drawSquareOverlay(img, to, whiteMoveHighlightFill)
	case board.Black:
		drawArrow(img, from, to, r.squareSize, blackMoveArrow)
	default:
		drawArrow(img, from, to, r.squareSize, neutralMoveArrow)
	}
}

func (r *Renderer) drawHUD(img *image.RGBA, opts Options, boardRect image.Rectangle) {
	drawer := &font.Drawer{Dst: img, Face: r.face}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "kingcapture"
	}
	turn := strings.TrimSpace(opts.Turn)
	score := "-"
	if opts.Score != nil {
		score = fmt.Sprintf("%d-%d", opts.Score[0], opts.Score[1])
	}

	bottom := boardRect.Min.Y - gapToBoard
	top := bottom - panelHeight

	titleWidth := max(titleMinWidth, drawer.MeasureString(title).Round()+panelPaddingX*2)
	scoreWidth := max(scoreMinWidth, drawer.MeasureString(score).Round()+panelPaddingX*2)
	turnWidth := max(turnMinWidth, drawer.MeasureString(turn).Round()+panelPaddingX*2)

	// Title on the left, score on the right, turn in between when there is room.
	titleWidth = max(0, min(titleWidth, boardRect.Dx()-scoreWidth-turnWidth-24))
	titleRect := image.Rect(boardRect.Min.X, top, boardRect.Min.X+titleWidth, bottom)
	scoreRect := image.Rect(boardRect.Max.X-scoreWidth, top, boardRect.Max.X, bottom)
	turnLeft := titleRect.Max.X + (scoreRect.Min.X-titleRect.Max.X-turnWidth)/2
	turnRect := image.Rect(turnLeft, top, turnLeft+turnWidth, bottom)

	panels := []struct {
		rect image.Rectangle
		text string
		fill color.Color
		ink  color.Color
	}{
		{titleRect, title, hudPanelColor, hudTextPrimary},
		{scoreRect, score, hudPanelColor, hudTextPrimary},
		{turnRect, turn, hudTurnPanelColor, hudTurnTextColor},
	}
	for _, p := range panels {
		if p.text == "" {
			continue
		}
		drawRoundedPanel(img, p.rect.Add(image.Pt(0, shadowOffsetY)), panelRadius, hudShadowColor)
		drawRoundedPanel(img, p.rect, panelRadius, p.fill)
		text := truncateWithEllipsis(r.face, p.text, p.rect.Dx()-panelPaddingX*2)
		drawCenteredString(drawer, p.rect, text, p.ink)
	}
}

func (r *Renderer) drawCoordinates(dst *image.RGBA, origin image.Point) {
	drawer := &font.Drawer{Dst: dst, Face: r.face, Src: image.NewUniform(coordinateTextColor)}
	ascent := r.face.Metrics().Ascent.Ceil()
	boardEndY := origin.Y + board.Size*r.squareSize
	for i := 0; i < board.Size; i++ {
		rankCenter := origin.Y + (board.Size-1-i)*r.squareSize + r.squareSize/2
		drawCenteredText(drawer, string(rune('1'+i)), origin.X-sideMargin/2, rankCenter+ascent/2)

		fileCenter := origin.X + i*r.squareSize + r.squareSize/2
		drawCenteredText(drawer, string(rune('a'+i)), fileCenter, boardEndY+ascent+4)
	}
}
