package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/exam-variant-service/internal/export"
	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

type generateOptions struct {
	batchFlags
	out         string
	xlsx        string
	variantsDir string
}

func newGenerateCommand() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch and write its answer key bundle",
		Example: `  variantctl generate -q exam.yaml -n 30 -s final-2024 --out keys.json --xlsx keys.xlsx
  variantctl generate -q exam.json -n 5 -s quiz --variants-dir ./variants`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Answer key bundle path (default stdout)")
	cmd.Flags().StringVar(&opts.xlsx, "xlsx", "", "Also write the answer keys as a spreadsheet")
	cmd.Flags().StringVar(&opts.variantsDir, "variants-dir", "", "Write every variant as <code>.json into this directory")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	result, err := opts.run(cmd.Context(), commandLogger(cmd))
	if err != nil {
		return err
	}

	bundle, err := variant.MarshalBundle(result.Bundle)
	if err != nil {
		return err
	}
	if opts.out == "" {
		if _, err := cmd.OutOrStdout().Write(append(bundle, '\n')); err != nil {
			return err
		}
	} else if err := os.WriteFile(opts.out, bundle, 0o644); err != nil {
		return fmt.Errorf("failed to write bundle: %w", err)
	}

	if opts.xlsx != "" {
		data, err := export.AnswerKeysWorkbook(result.Bundle, result.Master())
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.xlsx, data, 0o644); err != nil {
			return fmt.Errorf("failed to write spreadsheet: %w", err)
		}
	}

	if opts.variantsDir != "" {
		if err := writeVariants(opts.variantsDir, result.Variants); err != nil {
			return err
		}
	}

	cmd.PrintErrf("Generated %d variants (%d students", len(result.Variants), result.StudentCount)
	if result.IncludeMaster {
		cmd.PrintErr(" + master")
	}
	cmd.PrintErrln(")")
	return nil
}

// writeVariants stores the master as generated and every student variant
// without its answers.
func writeVariants(dir string, variants []*variant.ExamVariant) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create variants directory: %w", err)
	}
	for _, v := range variants {
		out := v
		if !v.IsMaster() {
			out = v.StudentView()
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode variant %s: %w", v.Code, err)
		}
		if err := os.WriteFile(filepath.Join(dir, v.Code+".json"), data, 0o644); err != nil {
			return fmt.Errorf("failed to write variant %s: %w", v.Code, err)
		}
	}
	return nil
}
