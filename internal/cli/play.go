package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/park285/kingcapture/internal/adapter/presenter"
	"github.com/park285/kingcapture/internal/board"
	"github.com/park285/kingcapture/internal/builder"
	"github.com/park285/kingcapture/internal/game"
	"github.com/park285/kingcapture/internal/opponent"
	"github.com/park285/kingcapture/internal/render"
)

func (a *app) playCmd() *cobra.Command {
	var side, pngPath string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play against the computer on the terminal",
		Long: heredoc.Doc(`play reads moves from standard input, either as square
			names (e2e4, e2-e4) or as indices (12 28), and answers
			with the configured opponent strategy.

			With --png the board is written to that file after
			every move.`),
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			human, ok := board.ParseTeam(side)
			if !ok {
				return fmt.Errorf("unknown side %q", side)
			}
			cfg := *a.cfg
			cfg.OpponentSide = human.Opponent().String()

			deps, err := builder.New(cmd.Context(), &cfg, a.logger)
			if err != nil {
				return err
			}
			defer deps.Close(context.Background())

			return playSession(cmd.Context(), deps, human, cmd.InOrStdin(), cmd.OutOrStdout(), pngPath)
		},
	}
	cmd.Flags().StringVarP(&side, "side", "s", "white", "Side you play: white or black")
	cmd.Flags().StringVar(&pngPath, "png", "", "Write the board as PNG to this path after each move")
	return cmd
}

type terminal struct {
	deps *builder.Deps
	f    *presenter.Formatter
	p    *presenter.Presenter
	last *board.Move

	pngPath string
}

func playSession(ctx context.Context, deps *builder.Deps, human board.Team, in io.Reader, out io.Writer, pngPath string) error {
	t := &terminal{
		deps:    deps,
		pngPath: pngPath,
		f:       presenter.NewFormatter(deps.Messages),
		p: presenter.NewPresenter(
			func(message string) error {
				_, err := fmt.Fprintln(out, message)
				return err
			},
			func(png []byte) error {
				if pngPath == "" {
					return nil
				}
				return os.WriteFile(pngPath, png, 0o644)
			},
		),
	}
	if err := t.p.Message(t.f.Intro(human)); err != nil {
		return err
	}

	sc := bufio.NewScanner(in)
	for {
		if err := t.opponentTurns(ctx); err != nil {
			return err
		}
		if _, err := fmt.Fprint(out, t.f.Prompt(deps.Session)); err != nil {
			return err
		}
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "q":
			return t.p.Message(t.f.Bye(deps.Session))
		case "moves":
			team := deps.Session.Turn()
			if err := t.p.Message(t.f.Moves(team, deps.Session.ValidMoves(team))); err != nil {
				return err
			}
			continue
		case "board":
			if err := t.show(ctx, deps.Session.Snapshot().String()); err != nil {
				return err
			}
			continue
		}

		mv, err := board.ParseMove(line)
		if err != nil {
			if err := t.p.Message(t.f.ParseError(line, err)); err != nil {
				return err
			}
			continue
		}
		outcome := deps.Session.PlayTurn(mv)
		if !outcome.Accepted {
			if err := t.p.Message(t.f.Rejected(mv)); err != nil {
				return err
			}
			continue
		}
		if err := t.report(ctx, outcome); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return t.p.Message(t.f.Bye(deps.Session))
}

// opponentTurns plays the computer's moves until the human is to move. A king
// capture by a computer playing White is followed by its next opening move.
// A computer left without moves forfeits nothing: the game is reset and play
// goes on.
func (t *terminal) opponentTurns(ctx context.Context) error {
	for i := 0; i < 3; i++ {
		out, played, err := t.deps.OpponentMove(ctx)
		switch {
		case errors.Is(err, opponent.ErrNoMoves):
			if err := t.p.Message(t.f.NoMoves(t.deps.Session.Turn())); err != nil {
				return err
			}
			t.last = nil
			t.deps.Session.PrepareGame(false)
			continue
		case err != nil:
			return err
		case !played:
			return nil
		}
		if err := t.report(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

func (t *terminal) report(ctx context.Context, out game.Outcome) error {
	if !out.Accepted {
		return t.p.Message(t.f.Rejected(out.Move))
	}
	mv := out.Move
	t.last = &mv
	return t.show(ctx, t.f.Outcome(out, t.deps.Session))
}

// show prints text and, with --png, writes the board image.
func (t *terminal) show(ctx context.Context, text string) error {
	if t.pngPath == "" {
		return t.p.Message(text)
	}
	s := t.deps.Session
	white, black := s.Scores()
	png, err := t.deps.Renderer.RenderPNG(ctx, s.Snapshot(), render.Options{
		Highlight: t.last,
		Title:     "kingcapture",
		Turn:      s.Turn().String() + " to move",
		Score:     &[2]uint{white, black},
	})
	if err != nil {
		return err
	}
	if err := t.p.Board(text, png); err != nil {
		return err
	}
	return t.p.Message(t.f.PNGWritten(t.pngPath))
}
