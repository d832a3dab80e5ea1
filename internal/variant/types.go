package variant

// KindName identifies a question kind in serialized form.
type KindName string

const (
	KindSingleChoice KindName = "single_choice"
	KindMultiChoice  KindName = "multi_choice"
	KindTrueFalse    KindName = "true_false"
	KindFreeText     KindName = "free_text"
	KindNumeric      KindName = "numeric"
	KindMatching     KindName = "matching"
)

// Valid reports whether k names one of the six supported kinds.
func (k KindName) Valid() bool {
	switch k {
	case KindSingleChoice, KindMultiChoice, KindTrueFalse, KindFreeText, KindNumeric, KindMatching:
		return true
	}
	return false
}

// Question is one authored question as supplied to a batch. It is treated as
// read-only for the lifetime of a batch run.
type Question struct {
	// ID is unique within a batch.
	ID string `json:"id" yaml:"id"`

	// Kind is optional. When empty or unknown the kind is inferred from the
	// question's shape.
	Kind KindName `json:"kind,omitempty" yaml:"kind,omitempty"`

	Body string `json:"body" yaml:"body"`

	// Choices is empty for free-text, numeric and matching questions.
	Choices []Choice `json:"choices,omitempty" yaml:"choices,omitempty"`

	// ExpectedAnswer is used when Choices is empty.
	ExpectedAnswer string `json:"expected_answer,omitempty" yaml:"expected_answer,omitempty"`

	// NumericTolerance only applies to numeric questions.
	NumericTolerance *float64 `json:"numeric_tolerance,omitempty" yaml:"numeric_tolerance,omitempty"`

	// AssociationLeft[i] pairs with AssociationRight[i]. Extra right-hand
	// items are distractors.
	AssociationLeft  []string `json:"association_left,omitempty" yaml:"association_left,omitempty"`
	AssociationRight []string `json:"association_right,omitempty" yaml:"association_right,omitempty"`

	// Explanation and Source are passed through opaquely to the master variant.
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Source      string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Choice is one alternative of a choice-based question. Letter is the authored
// label and is informational only: rendered variants are always relabeled.
type Choice struct {
	Letter    string `json:"letter,omitempty" yaml:"letter,omitempty"`
	Text      string `json:"text" yaml:"text"`
	IsCorrect bool   `json:"is_correct,omitempty" yaml:"is_correct,omitempty"`
}

// RenderedChoice is a choice after relabeling.
type RenderedChoice struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// RenderedQuestion is a question after order and choice shuffling.
type RenderedQuestion struct {
	// Position is the 1-based position in the variant.
	Position   int      `json:"position"`
	QuestionID string   `json:"question_id"`
	Kind       KindName `json:"kind"`
	Body       string   `json:"body"`

	Choices []RenderedChoice `json:"choices,omitempty"`

	// Left and Right are the matching columns; only Right is permuted.
	Left  []string         `json:"left,omitempty"`
	Right []RenderedChoice `json:"right,omitempty"`

	// Mapping[i] is the new index of the original choice (or right-hand item) i.
	Mapping []int `json:"mapping,omitempty"`

	// Audit fields, only present on annotated output.
	OriginalPosition *int   `json:"original_position,omitempty"`
	Explanation      string `json:"explanation,omitempty"`
	Source           string `json:"source,omitempty"`
}

// ExamVariant is one individualized exam. StudentIndex 0 is the master.
type ExamVariant struct {
	StudentIndex int                `json:"student_index"`
	Code         string             `json:"code"`
	Questions    []RenderedQuestion `json:"questions"`
	AnswerKey    AnswerKey          `json:"answer_key,omitempty"`
	Fingerprint  string             `json:"fingerprint"`
}

// IsMaster reports whether v is the instructor's annotated copy.
func (v *ExamVariant) IsMaster() bool {
	return v.StudentIndex == 0
}

// QuestionIDs returns the question ids in rendered order.
func (v *ExamVariant) QuestionIDs() []string {
	ids := make([]string, len(v.Questions))
	for i, q := range v.Questions {
		ids[i] = q.QuestionID
	}
	return ids
}

// StudentView returns a copy of v that is safe to hand to a student-facing
// renderer: no answer key, no permutation mappings and no annotations.
func (v *ExamVariant) StudentView() *ExamVariant {
	out := &ExamVariant{
		StudentIndex: v.StudentIndex,
		Code:         v.Code,
		Questions:    make([]RenderedQuestion, len(v.Questions)),
		Fingerprint:  v.Fingerprint,
	}
	for i, q := range v.Questions {
		q.Choices = append([]RenderedChoice(nil), q.Choices...)
		q.Left = append([]string(nil), q.Left...)
		q.Right = append([]RenderedChoice(nil), q.Right...)
		q.Mapping = nil
		q.OriginalPosition = nil
		q.Explanation = ""
		q.Source = ""
		out.Questions[i] = q
	}
	return out
}
