package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"stockbook/internal/config"
	"stockbook/internal/logger"
	"stockbook/internal/repository"
	"stockbook/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose bool
	timeout time.Duration

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "stockctl",
	Short: "Administer a stockbook store",
	Long: `stockctl works directly against the store configured for the stockbook
API (STORE_BACKEND and its connection settings, read from the environment
or a .env file).

  stockctl migrate up          apply pending postgres migrations
  stockctl summary --mode=monthly
  stockctl export --out=may.xlsx --date=2024-05-01`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		// no HTTP traffic to limit
		cfg.RateLimit.Requests = 0
		log = logger.NewCLI(verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Give up on the store after this long")
}

// openService loads the configured store into a tracker service. The caller
// closes the returned backend.
func openService(ctx context.Context) (service.TrackerService, *repository.Backend, error) {
	backend, err := repository.Open(ctx, cfg, false, log)
	if err != nil {
		return nil, nil, err
	}

	svc := service.NewTrackerService(backend.Store, nil, log, time.Now)
	if err := svc.Load(ctx); err != nil {
		backend.Close()
		return nil, nil, err
	}
	return svc, backend, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
