package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/roach88/hqlcore/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Color   bool

	// Driver and DSN select the database. Empty values fall back to
	// HQLC_DRIVER and HQLC_DSN, which may come from the env file.
	Driver  string
	DSN     string
	EnvFile string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the hqlc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "hqlc",
		Short: "hqlc - entity query compiler and runner",
		Long:  "Resolve entity queries against a CUE mapping, render them to SQL and run them.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return loadEnvFile(opts.EnvFile)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.Color, "color", true, "colored text output")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database driver (sqlite3|postgres|mysql)")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "data source name")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "file of environment defaults, ignored if absent")

	// Add subcommands
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadEnvFile loads path into the environment without overriding
// variables that are already set.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// storeConfig merges the connection flags over the environment.
func (o *RootOptions) storeConfig() store.Config {
	cfg := store.ConfigFromEnv()
	if o.Driver != "" {
		cfg.Driver = o.Driver
	}
	if o.DSN != "" {
		cfg.DSN = o.DSN
	}
	return cfg
}
