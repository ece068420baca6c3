package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/park285/kingcapture/internal/adapter/presenter"
	"github.com/park285/kingcapture/internal/board"
	"github.com/park285/kingcapture/internal/game"
	"github.com/park285/kingcapture/internal/msgcat"
)

func (a *app) movesCmd() *cobra.Command {
	var placement, side, from string
	cmd := &cobra.Command{
		Use:   "moves",
		Short: "List the moves available to one side of a position",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			team, ok := board.ParseTeam(side)
			if !ok {
				return fmt.Errorf("unknown side %q", side)
			}
			s := game.NewSession(game.WithLogger(a.logger))
			s.PrepareGame(true)
			if placement != "" {
				b, err := board.ParsePlacement(placement)
				if err != nil {
					return err
				}
				if err := s.Setup(b, team); err != nil {
					return err
				}
			}

			moves := s.ValidMoves(team)
			if from != "" {
				p, err := board.ParsePosition(from)
				if err != nil {
					return err
				}
				kept := moves[:0]
				for _, m := range moves {
					if m.From == p {
						kept = append(kept, m)
					}
				}
				moves = kept
			}

			msgs, err := msgcat.New(a.cfg.MessagesDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), presenter.NewFormatter(msgs).Moves(team, moves))
			return nil
		},
	}
	cmd.Flags().StringVarP(&placement, "placement", "p", "", "Piece placement, ranks 8 to 1 (default: starting position)")
	cmd.Flags().StringVarP(&side, "side", "s", "white", "Side to list moves for")
	cmd.Flags().StringVar(&from, "from", "", "Only moves starting on this square")
	return cmd
}
