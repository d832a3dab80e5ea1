package variant

// Kind is the closed set of question kinds. Every consumer switches over the
// concrete types below; the unexported marker keeps the set closed.
type Kind interface {
	Name() KindName
	isKind()
}

// SingleChoice has exactly one correct alternative.
type SingleChoice struct{}

// MultiChoice has one or more correct alternatives.
type MultiChoice struct{}

// TrueFalse is always rendered as [V, F].
type TrueFalse struct{}

// FreeText has no alternatives; the expected answer is the key.
type FreeText struct{}

// Numeric is a free-response number accepted within Tolerance.
type Numeric struct {
	Tolerance float64
}

// Matching pairs Left[i] with Right[i]; extra Right items are distractors.
type Matching struct {
	Left  []string
	Right []string
}

func (SingleChoice) Name() KindName { return KindSingleChoice }
func (MultiChoice) Name() KindName  { return KindMultiChoice }
func (TrueFalse) Name() KindName    { return KindTrueFalse }
func (FreeText) Name() KindName     { return KindFreeText }
func (Numeric) Name() KindName      { return KindNumeric }
func (Matching) Name() KindName     { return KindMatching }

func (SingleChoice) isKind() {}
func (MultiChoice) isKind()  {}
func (TrueFalse) isKind()    {}
func (FreeText) isKind()     {}
func (Numeric) isKind()      {}
func (Matching) isKind()     {}
