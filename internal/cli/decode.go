package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvingest/internal/ingest"
)

func newDecodeCmd(root *rootOptions) *cobra.Command {
	flags := &ingestFlags{}

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode and normalize CSV exports without touching a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, root, flags)
			if err != nil {
				return err
			}

			sum, err := ingest.New(cfg.Ingest, nil, cmd.OutOrStdout()).Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, t := range sum.Tables {
				if t.Decoded != "" {
					fmt.Fprintf(out, "Decoded table saved: %s\n", t.Decoded)
				}
			}
			return nil
		},
	}

	flags.addDecodeFlags(cmd)
	return cmd
}
