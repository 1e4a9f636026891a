// Package cli implements the csvingest command line.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/JonMunkholm/csvingest/internal/core/tables" // Register all tables
)

type rootOptions struct {
	envFile   string
	logLevel  string
	logFormat string
}

// NewRootCmd builds the command tree. Report output goes to the command's
// out writer; logs go to stderr.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "csvingest",
		Short: "Decode, normalize and load CSV exports into a relational database",
		Long: `csvingest reads a column map describing obfuscated CSV exports, decodes
their headers, normalizes users, cards and transactions, reports flagged rows,
ensures the destination schema and records one audit row per source file.

Configuration comes from the environment (and an optional .env file);
flags override it.

Exit Codes:
  0  - Success
  1  - Run failed
  2  - Usage or configuration error
  3  - Panic`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Environment file to load if present")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: text, json (env LOG_FORMAT)")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usage(err)
	})

	cmd.AddCommand(
		newRunCmd(opts),
		newDecodeCmd(opts),
		newSchemaCmd(opts),
		newHistoryCmd(opts),
	)

	return cmd
}

// Execute runs the root command with ctx and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		cmd.PrintErrln("Error:", err)
		return ExitCodeForError(err)
	}
	return ExitSuccess
}

// Main is the entry point used by cmd/csvingest.
func Main(ctx context.Context) int {
	return Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
