package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time.
var version = "(devel)"

// NewRootCommand builds the variantctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "variantctl",
		Short: "Generate and check individualized exam variants offline",
		Long: `variantctl builds a batch of exam variants from a question file without
a database. The same questions, student count and seed always produce the
same variants, codes and answer key bundle.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "Log batch progress to stderr")

	root.AddCommand(newGenerateCommand())
	root.AddCommand(newVerifyCommand())
	root.AddCommand(newVersionCommand())
	return root
}

func commandLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "variantctl", version)
		},
	}
}
