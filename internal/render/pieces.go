package render

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/park285/kingcapture/internal/board"
)

//go:embed assets/pieces/*.svg
var pieceFiles embed.FS

// Piece outlines carry colour placeholders that are filled per team.
var (
	fillToken   = []byte("FILL_COLOR")
	strokeToken = []byte("STROKE_COLOR")
)

var teamPalette = map[board.Team][2]string{
	board.White: {"#F8F6F0", "#1A1A1A"},
	board.Black: {"#1E1E24", "#EDEDED"},
}

type pieceCacheKey struct {
	square board.Square
	size   int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func renderPieceImage(sq board.Square, size int) (image.Image, error) {
	key := pieceCacheKey{square: sq, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	name, err := pieceAssetName(sq.Piece)
	if err != nil {
		return nil, err
	}
	data, err := pieceFiles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read piece asset %s: %w", name, err)
	}
	palette, ok := teamPalette[sq.Team]
	if !ok {
		return nil, fmt.Errorf("no palette for team %s", sq.Team)
	}
	data = bytes.ReplaceAll(data, fillToken, []byte(palette[0]))
	data = bytes.ReplaceAll(data, strokeToken, []byte(palette[1]))

	icon, err := oksvg.ReadIconStream(bytes.NewReader(sanitizeSVG(data)))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()
	return img, nil
}

func pieceAssetName(kind board.PieceKind) (string, error) {
	var letter string
	switch kind {
	case board.King:
		letter = "K"
	case board.Queen:
		letter = "Q"
	case board.Rook:
		letter = "R"
	case board.Bishop:
		letter = "B"
	case board.Knight:
		letter = "N"
	case board.Pawn:
		letter = "P"
	default:
		return "", fmt.Errorf("no asset for piece %s", kind)
	}
	return "assets/pieces/" + letter + ".svg", nil
}
