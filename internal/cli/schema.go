package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvingest/internal/report"
	"github.com/JonMunkholm/csvingest/internal/store"
)

func newSchemaCmd(root *rootOptions) *cobra.Command {
	flags := &ingestFlags{}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create the users and cards tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, root, flags)
			if err != nil {
				return err
			}
			if err := cfg.RequireDatabase(); err != nil {
				return usage(err)
			}

			st, err := store.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer st.Close()

			created, err := st.EnsureSchema(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(created) == 0 {
				fmt.Fprintln(out, "Schema up to date")
				return nil
			}
			for _, name := range created {
				fmt.Fprintf(out, "Created table: %s\n", name)
			}
			return nil
		},
	}

	flags.addDatabaseFlag(cmd)
	return cmd
}

func newHistoryCmd(root *rootOptions) *cobra.Command {
	flags := &ingestFlags{}
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent ingestion audit rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return usage(fmt.Errorf("--limit must be positive, got %d", limit))
			}

			cfg, err := loadConfig(cmd, root, flags)
			if err != nil {
				return err
			}
			if err := cfg.RequireDatabase(); err != nil {
				return usage(err)
			}

			st, err := store.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer st.Close()

			recs, err := st.Ingestions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return report.Ingestions(cmd.OutOrStdout(), recs)
		},
	}

	flags.addDatabaseFlag(cmd)
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of rows to show")
	return cmd
}
