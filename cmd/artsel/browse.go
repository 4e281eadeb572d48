package main

import (
	"fmt"
	"io"

	"github.com/Sternrassler/artic-select/internal/tui"
	"github.com/Sternrassler/artic-select/pkg/logging"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// newBrowseCmd creates the "browse" command.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse artworks in the terminal",
		Long: `Browse the collection page by page and select artworks.

Logs go to log.file, or nowhere when it is unset, since the browser owns the
terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logCfg := cfg.Logging()
			if logCfg.File == "" {
				logCfg.Output = io.Discard
			}
			logger, logFile, err := logging.SetupFile(logCfg)
			if err != nil {
				return err
			}
			defer logFile.Close()

			c, rdb, err := newClient(cfg)
			if err != nil {
				return err
			}
			defer c.Close()
			if rdb != nil {
				defer rdb.Close()
			}

			model := tui.New(cmd.Context(), c, tui.Config{
				PageSize:     cfg.Page.Size,
				FetchTimeout: cfg.API.Timeout,
			}, logger)

			logger.Info().
				Int("page_size", cfg.Page.Size).
				Bool("redis", rdb != nil).
				Msg("Starting browser")

			final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
			if err != nil {
				return fmt.Errorf("run browser: %w", err)
			}

			if m, ok := final.(*tui.Model); ok {
				sum := m.Session().Summary()
				logger.Info().
					Int("selected_count", sum.Count).
					Int("bulk_limit", sum.BulkLimit).
					Msg("Browser closed")
				fmt.Fprintf(cmd.OutOrStdout(), "Selected: %d rows\n", sum.Count)
			}
			return nil
		},
	}
}
