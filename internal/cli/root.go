// Package cli holds the kingcapture cobra commands.
package cli

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/park285/kingcapture/internal/config"
	"github.com/park285/kingcapture/internal/obslog"
)

// app carries what PersistentPreRunE loads for the subcommands.
type app struct {
	configPath string
	debug      bool

	cfg    *config.AppConfig
	logger *zap.Logger
}

func Root() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "kingcapture",
		Short: "Chess where capturing the king wins",
		Long: heredoc.Doc(`kingcapture plays chess without check: a move is legal
			when the piece can reach the square, and the game ends
			the moment a king is taken.

			Configuration is read from --config, or from
			$XDG_CONFIG_HOME/kingcapture/config.yaml when present,
			and environment variables override both.`),
		Args: cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "Log at debug level")

	root.AddCommand(a.serveCmd())
	root.AddCommand(a.playCmd())
	root.AddCommand(a.selfplayCmd())
	root.AddCommand(a.movesCmd())
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Log.Level = "debug"
	}
	logger, err := obslog.Init(cfg.LogOptions())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.cfg, a.logger = cfg, logger
	if cfg.Source != "" {
		logger.Debug("config_loaded", zap.String("path", cfg.Source))
	}
	return nil
}
