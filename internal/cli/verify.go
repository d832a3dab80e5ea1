package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

type verifyOptions struct {
	batchFlags
	bundle string
}

func newVerifyCommand() *cobra.Command {
	opts := &verifyOptions{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Regenerate a batch and compare it with a saved answer key bundle",
		Long: `verify rebuilds the batch from the same questions, student count and seed
and checks every variant fingerprint against the saved bundle. It fails when
any variant differs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.bundle, "bundle", "b", "", "Saved answer key bundle")
	_ = cmd.MarkFlagRequired("bundle")
	return cmd
}

func runVerify(cmd *cobra.Command, opts *verifyOptions) error {
	saved, err := os.ReadFile(opts.bundle)
	if err != nil {
		return fmt.Errorf("failed to read bundle: %w", err)
	}
	stored, err := variant.UnmarshalBundle(saved)
	if err != nil {
		return err
	}

	result, err := opts.run(cmd.Context(), commandLogger(cmd))
	if err != nil {
		return err
	}
	if err := stored.Verify(result.Variants); err != nil {
		return err
	}

	regenerated, err := variant.MarshalBundle(result.Bundle)
	if err != nil {
		return err
	}
	if bytes.Equal(bytes.TrimSpace(saved), regenerated) {
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d variants match, bundle is byte-identical\n", len(result.Variants))
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d variants match\n", len(result.Variants))
	}
	return nil
}
