package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/petroloom-cli/internal/config"
	"github.com/KaramelBytes/petroloom-cli/internal/logging"
	"github.com/KaramelBytes/petroloom-cli/internal/metrics"
)

var (
	// Global flags
	cfgFile  string
	debug    bool
	flagUser string

	// Loaded configuration
	cfg *cfgpkg.Global

	// Per-invocation collaborators, built by loadConfig
	logger   *logrus.Logger
	recorder *metrics.Recorder
)

var rootCmd = &cobra.Command{
	Use:   "petroloom",
	Short: "PetroLoom CLI: normalize and integrate reservoir datasets",
	Long: `PetroLoom ingests well logs, seismic, production and core datasets, scores
their quality, normalizes their numeric columns and unions them into one
unified reservoir model exported as JSON or CSV.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil || cfg.MetricsFile == "" {
			return nil
		}
		return recorder.WriteTextfile(cfg.MetricsFile)
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.petroloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "act as this user id (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{UserID: "local", Workers: 4, LogLevel: "info"}
	}
	cfg = c
	if rootCmd.PersistentFlags().Changed("user") && flagUser != "" {
		cfg.UserID = flagUser
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	logger = logging.New(level, cfg.LogFormat, os.Stderr)
	recorder = metrics.New()
}
