package main

import (
	"fmt"

	"github.com/Sternrassler/artic-select/internal/server"
	"github.com/Sternrassler/artic-select/pkg/client"
	"github.com/Sternrassler/artic-select/pkg/logging"
	"github.com/Sternrassler/artic-select/pkg/pagination"
	"github.com/spf13/cobra"
)

// newServeCmd creates the "serve" command.
func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API",
		Long: `Serve browsing sessions over HTTP.

Pages following the one requested are prefetched into the Redis cache when
redis.addr is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			logger := logging.Setup(cfg.Logging())

			c, rdb, err := newClient(cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			opts := []server.Option{server.WithReadiness(c.Ping)}
			if rdb != nil {
				defer rdb.Close()

				if err := c.Ping(cmd.Context()); err != nil {
					logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis not reachable yet")
				} else {
					logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
				}

				if cfg.Prefetch.Pages > 0 {
					opts = append(opts, server.WithPrefetcher(pagination.NewPrefetcher[client.Artwork](c, pagination.Config{
						MaxConcurrency: cfg.Prefetch.Concurrency,
						Timeout:        cfg.API.Timeout,
					})))
				}
			}

			srvCfg := server.DefaultConfig()
			srvCfg.PageSize = cfg.Page.Size
			srvCfg.FetchTimeout = cfg.API.Timeout
			srvCfg.PrefetchPages = cfg.Prefetch.Pages

			srv := server.New(c, srvCfg, logger, opts...)

			logger.Info().
				Str("base_url", cfg.API.BaseURL).
				Str("user_agent", cfg.API.UserAgent).
				Int("page_size", cfg.Page.Size).
				Msg("Session API configured")

			return srv.ListenAndServe(cmd.Context(), fmt.Sprintf(":%d", cfg.Server.Port))
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides server.port)")

	return cmd
}
