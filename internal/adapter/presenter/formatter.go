package presenter

import (
	"strings"

	"github.com/park285/kingcapture/internal/board"
	"github.com/park285/kingcapture/internal/game"
	"github.com/park285/kingcapture/internal/match"
	"github.com/park285/kingcapture/internal/msgcat"
)

// Formatter turns session outcomes into user-facing lines from the message catalog.
type Formatter struct {
	cat *msgcat.Catalog
}

func NewFormatter(cat *msgcat.Catalog) *Formatter {
	if cat == nil {
		cat = msgcat.Default()
	}
	return &Formatter{cat: cat}
}

type data = map[string]any

func (f *Formatter) Intro(human board.Team) string {
	return f.cat.Text("play.intro", data{"Human": human})
}

func (f *Formatter) Prompt(s *game.Session) string {
	w, b := s.Scores()
	return f.cat.Text("play.prompt", data{"Team": s.Turn(), "White": w, "Black": b})
}

func (f *Formatter) Rejected(m board.Move) string {
	return f.cat.Text("play.rejected", data{"Move": m})
}

func (f *Formatter) ParseError(input string, err error) string {
	return f.cat.Text("play.parse_error", data{"Input": input, "Err": err})
}

// Outcome describes an accepted move, and the win when it captured a king.
func (f *Formatter) Outcome(out game.Outcome, s *game.Session) string {
	if !out.Accepted {
		return f.Rejected(out.Move)
	}
	captured := ""
	if !out.Captured.IsEmpty() {
		captured = out.Captured.Piece.String()
	}
	line := f.cat.Text("play.opponent_move", data{"Team": out.Mover, "Move": out.Move, "Captured": captured})
	if !out.KingCaptured {
		return line
	}
	w, b := s.Scores()
	return line + "\n" + f.cat.Text("play.game_won", data{"Winner": out.Mover, "White": w, "Black": b})
}

func (f *Formatter) Bye(s *game.Session) string {
	w, b := s.Scores()
	return f.cat.Text("play.bye", data{"White": w, "Black": b})
}

func (f *Formatter) NoMoves(team board.Team) string {
	return f.cat.Text("play.no_moves", data{"Team": team})
}

func (f *Formatter) PNGWritten(path string) string {
	return f.cat.Text("play.png_written", data{"Path": path})
}

func (f *Formatter) Moves(team board.Team, moves []board.Move) string {
	var sb strings.Builder
	sb.WriteString(f.cat.Text("moves.header", data{"Count": len(moves), "Team": team}))
	for i, m := range moves {
		if i%8 == 0 {
			sb.WriteString("\n ")
		}
		sb.WriteString(" ")
		sb.WriteString(m.String())
	}
	return sb.String()
}

func (f *Formatter) SelfplayProgress(gameNo, games int) string {
	return f.cat.Text("selfplay.spinner", data{"Game": gameNo, "Games": games})
}

func (f *Formatter) SelfplayGame(rec match.GameRecord) string {
	return f.cat.Text("selfplay.game", data{
		"Number": rec.Number,
		"Result": rec.Result,
		"Reason": rec.Reason,
		"Plies":  rec.Plies(),
	})
}

func (f *Formatter) SelfplaySummary(sum match.Summary) string {
	return f.cat.Text("selfplay.summary", data{
		"Wins":   sum.Wins,
		"Draws":  sum.Draws,
		"Losses": sum.Losses,
		"White":  sum.WhiteScore,
		"Black":  sum.BlackScore,
	})
}

func (f *Formatter) Listening(addr, sessionID string) string {
	return f.cat.Text("serve.listening", data{"Addr": addr, "Session": sessionID})
}
