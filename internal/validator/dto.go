package validator

// GenerateBatchRequest represents the request structure for generating a batch
type GenerateBatchRequest struct {
	QuestionIDs   []string `json:"question_ids" validate:"required,min=1,unique,dive,question_id"`
	StudentCount  int      `json:"student_count" validate:"student_count"`
	Seed          string   `json:"seed" validate:"required,batch_seed"`
	IncludeMaster *bool    `json:"include_master"`
}

// WantsMaster reports whether the master variant should be produced; it
// defaults to true.
func (r *GenerateBatchRequest) WantsMaster() bool {
	return r.IncludeMaster == nil || *r.IncludeMaster
}

// ChoiceRequest is one alternative of a question
type ChoiceRequest struct {
	Letter    string `json:"letter" validate:"omitempty,max=2"`
	Text      string `json:"text" validate:"required,max=1000"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionCreateRequest represents the request structure for creating questions
type QuestionCreateRequest struct {
	ID               string          `json:"id" validate:"required,question_id"`
	Kind             string          `json:"kind" validate:"omitempty,question_kind"`
	Body             string          `json:"body" validate:"required,min=1,max=4000"`
	Choices          []ChoiceRequest `json:"choices" validate:"omitempty,dive"`
	ExpectedAnswer   string          `json:"expected_answer" validate:"max=1000"`
	NumericTolerance *float64        `json:"numeric_tolerance" validate:"omitempty,min=0"`
	AssociationLeft  []string        `json:"association_left" validate:"omitempty,dive,required,max=500"`
	AssociationRight []string        `json:"association_right" validate:"omitempty,dive,required,max=500"`
	Explanation      *string         `json:"explanation" validate:"omitempty,max=2000"`
	Source           *string         `json:"source" validate:"omitempty,max=500"`
}

// VerifyVariantRequest asks to check a printed variant against its batch
type VerifyVariantRequest struct {
	Code        string `json:"code" validate:"required,max=16"`
	Fingerprint string `json:"fingerprint" validate:"omitempty,hexadecimal,len=32"`
}
