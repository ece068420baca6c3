package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/park285/kingcapture/internal/board"
	"github.com/park285/kingcapture/internal/builder"
	"github.com/park285/kingcapture/internal/config"
	"github.com/park285/kingcapture/internal/opponent"
)

// stuck answers its first call with ErrNoMoves and then plays the fallback.
type stuck struct {
	calls    int
	fallback opponent.Opponent
}

func (s *stuck) ComputeMove(ctx context.Context, b *board.Board, team board.Team) (board.Move, error) {
	s.calls++
	if s.calls == 1 {
		return board.Move{}, opponent.ErrNoMoves
	}
	return s.fallback.ComputeMove(ctx, b, team)
}

func TestPlayRestartsWhenComputerHasNoMoves(t *testing.T) {
	cfg := &config.AppConfig{OpponentSide: "black", OpponentStrategy: "greedy", OpponentSeed: 1, MaxPlies: 60, FeedMode: "auto"}
	deps, err := builder.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("builder.New: %v", err)
	}
	defer deps.Close(context.Background())
	bot := &stuck{fallback: deps.Opponent}
	deps.Opponent = bot

	var out bytes.Buffer
	err = playSession(context.Background(), deps, board.White, strings.NewReader("e2e4\ne2e4\nquit\n"), &out, "")
	if err != nil {
		t.Fatalf("playSession: %v\n%s", err, out.String())
	}
	text := out.String()
	for _, want := range []string{"white plays e2e4", "black has no moves. New game.", "black plays", "Final score 0-0"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if bot.calls != 2 {
		t.Fatalf("opponent calls = %d, want 2", bot.calls)
	}
	e4, _ := board.ParsePosition("e4")
	if deps.Session.Square(e4).IsEmpty() {
		t.Fatalf("second e2e4 should have been played on the fresh board")
	}
}
