package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvingest/internal/config"
	"github.com/JonMunkholm/csvingest/internal/ingest"
	"github.com/JonMunkholm/csvingest/internal/store"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	flags := &ingestFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Decode, normalize and load CSV exports, then record audit rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, root, flags)
			if err != nil {
				return err
			}
			if err := cfg.RequireDatabase(); err != nil {
				return usage(err)
			}
			return runIngest(cmd, cfg)
		},
	}

	flags.addDecodeFlags(cmd)
	flags.addDatabaseFlag(cmd)
	cmd.Flags().BoolVar(&flags.noLoad, "no-load", false, "Ensure the schema and record audit rows without inserting users and cards")

	return cmd
}

func runIngest(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()

	slog.Debug("configuration loaded", "config", cfg.String())

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	sum, err := ingest.New(cfg.Ingest, st, cmd.OutOrStdout()).Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sum.Created) > 0 {
		fmt.Fprintf(out, "Created tables: %v\n", sum.Created)
	}
	fmt.Fprintf(out, "Run %s: %d tables ingested into %s, %d skipped\n", sum.RunID, len(sum.Tables), sum.Dialect, len(sum.Skipped))
	return nil
}
