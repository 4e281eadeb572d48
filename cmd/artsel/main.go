// Command artsel browses the Art Institute of Chicago collection and keeps a
// selection of artworks across pages.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/artic-select/internal/config"
	"github.com/Sternrassler/artic-select/pkg/client"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

// Version is set at build time via -ldflags.
var Version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// newRootCmd creates the artsel command tree.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "artsel",
		Short: "Browse artworks and select them across pages",
		Long: `artsel pages through the public artworks collection of the Art Institute
of Chicago and keeps a selection that spans pages.

  browse   interactive terminal browser
  serve    HTTP session API with /health, /ready and /metrics
  cache    manage the Redis page cache

Settings come from an optional TOML file (--config or ARTSEL_CONFIG) and
ARTSEL_ environment variables, e.g. ARTSEL_REDIS_ADDR=localhost:6379.`,
		Version:       Version,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug level)")

	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCacheCmd())

	return rootCmd
}

// loadConfig reads the configuration and applies the global flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newClient builds the collection client. The returned Redis client is nil
// when no Redis address is configured.
func newClient(cfg config.Config) (*client.Client, *redis.Client, error) {
	rdb := cfg.NewRedis()
	c, err := client.New(cfg.Client(rdb))
	if err != nil {
		if rdb != nil {
			rdb.Close()
		}
		return nil, nil, fmt.Errorf("create client: %w", err)
	}
	return c, rdb, nil
}
