// Package cmd provides the command-line interface of cachesim.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/logging"
)

var (
	configPath string
	dotEnvPath string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cachesim",
	Short: "cachesim steps memory traces through a two-level cache.",
	Long: `cachesim simulates an L1/L2 set-associative cache hierarchy. ` +
		`It runs traces of raw addresses, RISC-V style loads and stores, and ` +
		`variable assignments, and reports hits, misses by cause, and energy.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&dotEnvPath, "env", ".env",
		"dotenv file with CACHESIM_* variables")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level: trace, debug, info, warn, or error")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadConfig reads the configuration selected by the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	c, err := config.Load(configPath, dotEnvPath)
	if err != nil {
		return nil, nil, err
	}

	if logLevel != "" {
		if !logging.ValidLevel(logLevel) {
			return nil, nil, fmt.Errorf("invalid log level %q", logLevel)
		}

		c.LogLevel = logLevel
	}

	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	logger := logging.NewLogger(c.LogLevel, cmd.ErrOrStderr())

	return c, logger, nil
}
