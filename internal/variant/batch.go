package variant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"
)

// BatchState is the lifecycle of one GenerateBatch call.
type BatchState string

const (
	StatePending    BatchState = "pending"
	StateAssembling BatchState = "assembling"
	StateVerifying  BatchState = "verifying"
	StateDone       BatchState = "done"
	StateFailed     BatchState = "failed"
)

// BatchResult is the outcome of a successful batch.
type BatchResult struct {
	State         BatchState
	Seed          string
	StudentCount  int
	IncludeMaster bool

	// Variants holds the master first, when requested, then students in
	// index order.
	Variants []*ExamVariant

	Bundle AnswerKeyBundle
}

// Master returns the master variant, or nil when it was not requested.
func (r *BatchResult) Master() *ExamVariant {
	if len(r.Variants) > 0 && r.Variants[0].IsMaster() {
		return r.Variants[0]
	}
	return nil
}

// Students returns the student variants in index order.
func (r *BatchResult) Students() []*ExamVariant {
	if r.Master() != nil {
		return r.Variants[1:]
	}
	return r.Variants
}

// Variant looks a variant up by code.
func (r *BatchResult) Variant(code string) (*ExamVariant, bool) {
	for _, v := range r.Variants {
		if v.Code == code {
			return v, true
		}
	}
	return nil, false
}

// Orchestrator runs whole batches.
type Orchestrator struct {
	cfg       Config
	assembler *Assembler
	logger    *slog.Logger
}

// NewOrchestrator creates an orchestrator; zero fields of cfg take defaults.
func NewOrchestrator(cfg Config) *Orchestrator {
	cfg = cfg.withDefaults()
	return &Orchestrator{
		cfg:       cfg,
		assembler: NewAssembler(cfg),
		logger:    cfg.Logger,
	}
}

// GenerateBatch builds the master (when includeMaster is set) and
// studentCount student variants from one question set. Variants are
// assembled in parallel and checked sequentially; any failure aborts the
// whole batch and no partial result is returned.
func (o *Orchestrator) GenerateBatch(ctx context.Context, questions []Question, studentCount int, batchSeed string, includeMaster bool) (*BatchResult, error) {
	o.transition(StatePending, nil)

	if err := validateInput(questions, studentCount); err != nil {
		return nil, o.fail(&BatchError{Stage: StatePending, StudentIndex: -1, Err: err})
	}

	snapshot := slices.Clone(questions)

	o.transition(StateAssembling, nil)
	variants, err := o.assemble(ctx, snapshot, studentCount, batchSeed, includeMaster)
	if err != nil {
		return nil, o.fail(err)
	}

	o.transition(StateVerifying, nil)
	if err := o.verify(snapshot, variants); err != nil {
		return nil, o.fail(err)
	}

	result := &BatchResult{
		State:         StateDone,
		Seed:          batchSeed,
		StudentCount:  studentCount,
		IncludeMaster: includeMaster,
		Variants:      variants,
		Bundle:        BuildBundle(variants),
	}
	o.transition(StateDone, nil)
	o.logger.Info("Variant batch generated",
		"students", studentCount,
		"questions", len(snapshot),
		"include_master", includeMaster)
	return result, nil
}

func validateInput(questions []Question, studentCount int) error {
	if len(questions) == 0 {
		return ErrQuestionSetEmpty
	}
	if studentCount < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidStudentCount, studentCount)
	}
	seen := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateQuestionID, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return nil
}

func (o *Orchestrator) assemble(ctx context.Context, questions []Question, studentCount int, batchSeed string, includeMaster bool) ([]*ExamVariant, error) {
	variants := make([]*ExamVariant, 0, studentCount+1)
	if includeMaster {
		master, err := o.assembler.Assemble(questions, 0, batchSeed, true)
		if err != nil {
			return nil, err
		}
		variants = append(variants, master)
	}

	students := make([]*ExamVariant, studentCount)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)
	for i := 1; i <= studentCount; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := o.assembler.Assemble(questions, i, batchSeed, false)
			if err != nil {
				return err
			}
			students[i-1] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return append(variants, students...), nil
}

// verify runs single-threaded over the assembled variants: it settles code
// collisions, recomputes every fingerprint and checks that each variant
// carries exactly the input question ids.
func (o *Orchestrator) verify(questions []Question, variants []*ExamVariant) error {
	want := make(map[string]int, len(questions))
	for _, q := range questions {
		want[q.ID]++
	}

	alloc := NewCodeAllocator(o.cfg.MaxCodeRetries)
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		if v.IsMaster() {
			v.Code = MasterCode
		} else {
			code, err := alloc.Allocate(v.StudentIndex, o.cfg.CodeSalt)
			if err != nil {
				return &BatchError{Stage: StateVerifying, StudentIndex: v.StudentIndex, Err: err}
			}
			if code != v.Code {
				o.logger.Debug("Variant code reassigned",
					"student_index", v.StudentIndex,
					"from", v.Code,
					"to", code)
				v.Code = code
			}
		}
		if _, dup := seen[v.Code]; dup {
			return &BatchError{Stage: StateVerifying, StudentIndex: v.StudentIndex,
				Err: fmt.Errorf("%w: %s", ErrDuplicateVariantCode, v.Code)}
		}
		seen[v.Code] = struct{}{}

		if err := VerifyFingerprint(v); err != nil {
			return &BatchError{Stage: StateVerifying, StudentIndex: v.StudentIndex, Err: err}
		}

		if err := sameQuestionSet(want, v); err != nil {
			return &BatchError{Stage: StateVerifying, StudentIndex: v.StudentIndex, Err: err}
		}
	}
	return nil
}

func sameQuestionSet(want map[string]int, v *ExamVariant) error {
	got := make(map[string]int, len(v.Questions))
	for _, q := range v.Questions {
		got[q.QuestionID]++
	}
	if len(got) != len(want) || len(v.AnswerKey) != len(v.Questions) {
		return fmt.Errorf("%w: %d questions, %d keys", ErrIncompleteVariant, len(v.Questions), len(v.AnswerKey))
	}
	for id, n := range want {
		if got[id] != n {
			return fmt.Errorf("%w: question %s", ErrIncompleteVariant, id)
		}
	}
	return nil
}

func (o *Orchestrator) transition(state BatchState, err error) {
	if err != nil {
		o.logger.Error("Variant batch failed", "state", state, "error", err)
	} else {
		o.logger.Debug("Variant batch state", "state", state)
	}
	if o.cfg.OnStateChange != nil {
		o.cfg.OnStateChange(state, err)
	}
}

func (o *Orchestrator) fail(err error) error {
	var be *BatchError
	if !errors.As(err, &be) {
		err = &BatchError{Stage: StateAssembling, StudentIndex: -1, Err: err}
	}
	o.transition(StateFailed, err)
	return err
}
