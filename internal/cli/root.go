// Package cli: placesctl, an operator tool for the places table. It opens the same store the server
// uses (environment or --db) and can run a wholesale refresh, dump rows or count them.
package cli

import (
	"fmt"

	"places-api/internal/store"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath string // SQLite file; empty means configure from the environment
	Format string // "json" | "text"
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the placesctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "placesctl",
		Short:         "Inspect and refresh the places store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "sqlite database file (default: PLACES_DB_* environment)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRefreshCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) openStore() (*store.Store, error) {
	if o.DBPath != "" {
		return store.Open(string(store.DialectSQLite), o.DBPath)
	}
	return store.OpenFromEnv()
}
