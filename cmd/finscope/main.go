package main

import (
	"fmt"
	"os"

	"github.com/newthinker/finscope/internal/app"
	"github.com/newthinker/finscope/internal/config"
	"github.com/newthinker/finscope/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "finscope",
	Short: "finscope - normalized market data from TwelveData, Yahoo and Alpha Vantage",
	Long: `finscope routes quote, price, history, indicator, fundamentals and analyst
requests to the configured upstream provider and returns one normalized shape.
It runs as a CLI, an HTTP API or an MCP tool server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// loadConfig reads the config file, or the defaults plus environment
// fallbacks when none is given.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if debug {
		cfg.Log.Development = true
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newApp loads the configuration and assembles the application.
// Logs go to stderr so stdout carries only command output.
func newApp() (*app.App, *config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.New(cfg.Log.Development, cfg.Log.Level)
	if err != nil {
		return nil, nil, nil, err
	}
	a, err := app.New(cfg, log)
	if err != nil {
		log.Sync()
		return nil, nil, nil, fmt.Errorf("config validation failed: %w", err)
	}
	return a, cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
