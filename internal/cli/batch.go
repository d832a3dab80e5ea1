package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/exam-variant-service/internal/questionfile"
	"github.com/SAP-F-2025/exam-variant-service/internal/validator"
	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

// batchFlags are shared by generate and verify: together they identify a
// batch completely.
type batchFlags struct {
	questions string
	students  int
	seed      string
	master    bool
	strict    bool
	codeSalt  int
	workers   int
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.questions, "questions", "q", "", "Question file (.json, .yaml or .yml)")
	cmd.Flags().IntVarP(&f.students, "students", "n", 0, "Number of student variants")
	cmd.Flags().StringVarP(&f.seed, "seed", "s", "", "Batch seed")
	cmd.Flags().BoolVar(&f.master, "master", true, "Include the annotated master copy")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Reject questions inferred as multi-choice")
	cmd.Flags().IntVar(&f.codeSalt, "code-salt", 0, "Shift applied to every student code")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Parallel assembly workers (0 means one per CPU)")
	_ = cmd.MarkFlagRequired("questions")
	_ = cmd.MarkFlagRequired("seed")
}

// run loads the question file and generates the batch.
func (f *batchFlags) run(ctx context.Context, logger *slog.Logger) (*variant.BatchResult, error) {
	doc, err := questionfile.Load(f.questions)
	if err != nil {
		return nil, err
	}

	cfg := variant.DefaultConfig()
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	cfg.CodeSalt = f.codeSalt
	cfg.StrictMultiCorrect = f.strict
	cfg.Logger = logger

	req := &validator.GenerateBatchRequest{
		QuestionIDs:   questionIDs(doc.Questions),
		StudentCount:  f.students,
		Seed:          f.seed,
		IncludeMaster: &f.master,
	}
	bv := validator.NewBusinessValidatorWithConfig(cfg)
	if errs := bv.ValidateGenerateBatch(req); len(errs) > 0 {
		return nil, fmt.Errorf("invalid arguments:\n%s", errs.String())
	}

	var structural validator.ValidationErrors
	for _, q := range doc.Questions {
		structural = append(structural, bv.ValidateQuestion(q)...)
	}
	if len(structural) > 0 {
		return nil, fmt.Errorf("%s: invalid questions:\n%s", f.questions, structural.String())
	}

	result, err := variant.NewOrchestrator(cfg).GenerateBatch(ctx, doc.Questions, f.students, f.seed, f.master)
	if err != nil {
		var be *variant.BatchError
		if errors.As(err, &be) && be.QuestionID != "" {
			return nil, fmt.Errorf("question %s: %w", be.QuestionID, err)
		}
		return nil, err
	}
	return result, nil
}

func questionIDs(qs []variant.Question) []string {
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}
