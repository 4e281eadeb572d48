package main

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/artic-select/pkg/cache"
	"github.com/spf13/cobra"
)

// errNoRedis is returned by commands that need redis.addr.
var errNoRedis = errors.New("redis.addr is not configured")

// newCacheCmd creates the "cache" command group.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the Redis page cache",
	}

	cmd.AddCommand(newCachePurgeCmd())

	return cmd
}

// newCachePurgeCmd creates the "cache purge" command.
func newCachePurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Drop every cached page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			rdb := cfg.NewRedis()
			if rdb == nil {
				return errNoRedis
			}
			defer rdb.Close()

			removed, err := cache.NewManager(rdb).Purge(cmd.Context())
			if err != nil {
				return fmt.Errorf("purge cache: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached pages\n", removed)
			return nil
		},
	}
}
