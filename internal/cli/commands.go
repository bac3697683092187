package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"places-api/internal/cache"
	"places-api/internal/ingest"
	"places-api/internal/utils"

	"github.com/spf13/cobra"
)

// NewRefreshCommand: wholesale refresh from outside the server. Local edits in the store are lost.
// When REDIS_ENABLED=true the shared lookup cache is invalidated too, so a running server stops
// answering from pre-refresh entries.
func NewRefreshCommand(opts *RootOptions) *cobra.Command {
	var categories string
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Replace every stored place with a fresh upstream fetch",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if categories == "" {
				categories = os.Getenv("PLACES_REFRESH_CATEGORIES")
			}
			r := ingest.NewRefresher(ingest.SourceFromEnv(), st, categories)
			if rc := utils.OpenRedisFromEnv(); rc != nil {
				defer rc.Close()
				r.OnReplaced = cache.New(rc, cache.TTLFromEnv()).Invalidate
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), ingest.TimeoutFromEnv())
			defer cancel()
			n, err := r.Refresh(ctx)
			if err != nil {
				return fmt.Errorf("refresh: %w", err)
			}
			if opts.Format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]int{"rows": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d places\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&categories, "categories", "", "category token (default: PLACES_REFRESH_CATEGORIES or all)")
	return cmd
}

func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every stored place in storage order",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			places, err := st.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(places)
			}
			for _, p := range places {
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, p.Address)
			}
			return nil
		},
	}
}

func NewCountCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored places",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := st.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}
