package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/park285/kingcapture/internal/adapter/presenter"
	"github.com/park285/kingcapture/internal/game"
	"github.com/park285/kingcapture/internal/match"
	"github.com/park285/kingcapture/internal/msgcat"
	"github.com/park285/kingcapture/internal/opponent"
)

const spinnerCharSet = 14

func (a *app) selfplayCmd() *cobra.Command {
	var (
		games        int
		white, black string
		seed         int64
		quiet        bool
	)
	cmd := &cobra.Command{
		Use:   "selfplay",
		Short: "Let two computer strategies play each other",
		Long: heredoc.Doc(`selfplay runs a series of games on one session between
			two strategies (random or greedy) and prints each result
			followed by the running score.

			Games end on a king capture, an illegal move, a side with
			no moves, or after max_plies half-moves.`),
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			if seed == 0 {
				seed = a.cfg.OpponentSeed
			}
			whitePlayer, err := opponent.New(white, seed)
			if err != nil {
				return err
			}
			blackPlayer, err := opponent.New(black, seed+1)
			if err != nil {
				return err
			}
			msgs, err := msgcat.New(a.cfg.MessagesDir)
			if err != nil {
				return err
			}
			f := presenter.NewFormatter(msgs)
			out := cmd.OutOrStdout()
			var spin io.Writer
			if !quiet {
				spin = cmd.ErrOrStderr()
			}
			sum, err := runSelfplay(cmd, match.Config{
				Players:  [2]opponent.Opponent{whitePlayer, blackPlayer},
				Games:    games,
				MaxPlies: a.cfg.MaxPlies,
				Logger:   a.logger,
			}, f, spin)
			if err != nil {
				return err
			}
			for _, rec := range sum.Games {
				fmt.Fprintln(out, f.SelfplayGame(rec))
			}
			fmt.Fprintln(out, f.SelfplaySummary(sum))
			return nil
		},
	}
	cmd.Flags().IntVarP(&games, "games", "n", 10, "Number of games")
	cmd.Flags().StringVar(&white, "white", "greedy", "Strategy for White")
	cmd.Flags().StringVar(&black, "black", "random", "Strategy for Black")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 uses opponent_seed, then the clock)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the progress spinner")
	return cmd
}

// runSelfplay plays the match, showing progress on spin when it is non-nil.
func runSelfplay(cmd *cobra.Command, cfg match.Config, f *presenter.Formatter, spin io.Writer) (match.Summary, error) {
	s := game.NewSession(game.WithLogger(cfg.Logger))
	if spin == nil {
		return match.Run(cmd.Context(), s, cfg)
	}

	sp := spinner.New(spinner.CharSets[spinnerCharSet], 100*time.Millisecond, spinner.WithWriter(spin))
	sp.Suffix = f.SelfplayProgress(1, cfg.Games)
	current := 1
	cfg.OnPly = func(number int, _ game.Outcome) {
		if number == current {
			return
		}
		current = number
		sp.Lock()
		sp.Suffix = f.SelfplayProgress(number, cfg.Games)
		sp.Unlock()
	}
	sp.Start()
	defer sp.Stop()
	return match.Run(cmd.Context(), s, cfg)
}
