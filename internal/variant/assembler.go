package variant

import "fmt"

// Assembler builds one variant at a time. It holds no per-variant state and
// is safe for concurrent use.
type Assembler struct {
	strictMultiCorrect bool
	codeSalt           int
}

// NewAssembler creates an assembler from the relevant fields of cfg.
func NewAssembler(cfg Config) *Assembler {
	return &Assembler{strictMultiCorrect: cfg.StrictMultiCorrect, codeSalt: cfg.CodeSalt}
}

// Assemble builds the variant of studentIndex. With annotate set the
// authored order is kept and audit fields are filled in; that is how the
// master (index 0) is produced. Otherwise question order and every
// question's alternatives are shuffled from independent streams.
func (a *Assembler) Assemble(questions []Question, studentIndex int, batchSeed string, annotate bool) (*ExamVariant, error) {
	if len(questions) == 0 {
		return nil, ErrQuestionSetEmpty
	}

	shuffle := !annotate
	ordered := questions
	newPos := Identity(len(questions)).Forward
	if shuffle {
		ordered, newPos = OrderQuestions(questions, DeriveSeed(batchSeed, studentIndex, orderSalt))
	}
	origPos := make([]int, len(newPos))
	for i, p := range newPos {
		origPos[p] = i
	}

	v := &ExamVariant{
		StudentIndex: studentIndex,
		Questions:    make([]RenderedQuestion, len(ordered)),
		AnswerKey:    make(AnswerKey, len(ordered)),
	}

	for pos, q := range ordered {
		kind, err := a.classify(q)
		if err != nil {
			return nil, a.fail(studentIndex, q.ID, err)
		}

		seed := DeriveSeed(batchSeed, studentIndex, alternativeSalt(q.ID))
		rq, key, err := ShuffleAlternatives(q, kind, seed, shuffle)
		if err != nil {
			return nil, a.fail(studentIndex, q.ID, err)
		}

		rq.Position = pos + 1
		if annotate {
			orig := origPos[pos] + 1
			rq.OriginalPosition = &orig
			rq.Explanation = q.Explanation
			rq.Source = q.Source
		}
		v.Questions[pos] = rq
		v.AnswerKey[pos+1] = key
	}

	if studentIndex == 0 {
		v.Code = MasterCode
	} else {
		code, err := FormatCode(studentIndex, a.codeSalt)
		if err != nil {
			return nil, a.fail(studentIndex, "", err)
		}
		v.Code = code
	}

	fp, err := Fingerprint(v)
	if err != nil {
		return nil, a.fail(studentIndex, "", err)
	}
	v.Fingerprint = fp
	return v, nil
}

func (a *Assembler) classify(q Question) (Kind, error) {
	kind := Classify(q)
	if a.strictMultiCorrect && !q.Kind.Valid() {
		if _, ok := kind.(MultiChoice); ok {
			return nil, fmt.Errorf("%w: %d choices marked correct without an explicit kind",
				ErrAmbiguousCorrectAlternative, countCorrect(q.Choices))
		}
	}
	return kind, nil
}

func (a *Assembler) fail(studentIndex int, questionID string, err error) error {
	return &BatchError{
		Stage:        StateAssembling,
		StudentIndex: studentIndex,
		QuestionID:   questionID,
		Err:          err,
	}
}

// Check classifies q and renders it once in authored order, reporting the
// structural error assembly would hit.
func (a *Assembler) Check(q Question) (Kind, error) {
	kind, err := a.classify(q)
	if err != nil {
		return nil, err
	}
	if _, _, err := ShuffleAlternatives(q, kind, Seed{}, false); err != nil {
		return nil, err
	}
	return kind, nil
}
