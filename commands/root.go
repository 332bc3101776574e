package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"inkwell/common"
)

var (
	envFile  string
	dbURL    string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "inkwell - a small multi-author blogging platform",
	Long: `inkwell serves a public blog with live listings, search and comments,
and an authenticated admin area where authors write and publish posts.

Commands:
  serve    - run the HTTP server
  migrate  - create or update the database schema
  browse   - read published posts in the terminal`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "File with environment variables")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database location, overrides DATABASE_URL and sqlite_db")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level, overrides LOG_LEVEL")
}

// loadConfig reads the environment and applies the global flags on top.
func loadConfig() common.Config {
	cfg := common.Load(envFile)
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	common.ConfigureLogging(cfg.LogLevel, cfg.LogFormat)
	return cfg
}
