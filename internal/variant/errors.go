package variant

import (
	"errors"
	"fmt"
)

// Structural defects of a single question. Any of these aborts the whole batch.
var (
	ErrEmptyAlternativeSet         = errors.New("question has no alternatives")
	ErrNoCorrectAlternative        = errors.New("question has no correct alternative")
	ErrTooManyAlternatives         = errors.New("question has more alternatives than supported")
	ErrAmbiguousCorrectAlternative = errors.New("single-choice question has more than one correct alternative")
	ErrInvalidAssociation          = errors.New("matching question has fewer right-hand items than left-hand items")
	ErrInvalidNumericAnswer        = errors.New("numeric question has a non-numeric expected answer")
)

// Batch-level failures.
var (
	ErrQuestionSetEmpty     = errors.New("question set is empty")
	ErrDuplicateQuestionID  = errors.New("question id appears more than once")
	ErrInvalidStudentCount  = errors.New("student count must not be negative")
	ErrCodeSpaceExhausted   = errors.New("variant code space exhausted")
	ErrFingerprintMismatch  = errors.New("variant fingerprint mismatch")
	ErrIncompleteVariant    = errors.New("variant question set differs from input")
	ErrDuplicateVariantCode = errors.New("variant code is not unique within the batch")
)

// BatchError carries the diagnostic context of a failed batch.
type BatchError struct {
	Stage        BatchState
	StudentIndex int
	QuestionID   string
	Err          error
}

func (e *BatchError) Error() string {
	msg := fmt.Sprintf("batch failed while %s", e.Stage)
	switch {
	case e.QuestionID != "":
		msg += fmt.Sprintf(" (student %d, question %s)", e.StudentIndex, e.QuestionID)
	case e.StudentIndex >= 0:
		msg += fmt.Sprintf(" (student %d)", e.StudentIndex)
	}
	return msg + ": " + e.Err.Error()
}

func (e *BatchError) Unwrap() error { return e.Err }

// IsStructuralError reports whether err was caused by a defective question
// rather than by an internal logic failure.
func IsStructuralError(err error) bool {
	for _, target := range []error{
		ErrEmptyAlternativeSet,
		ErrNoCorrectAlternative,
		ErrTooManyAlternatives,
		ErrAmbiguousCorrectAlternative,
		ErrInvalidAssociation,
		ErrInvalidNumericAnswer,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsInputError reports whether err was caused by the batch input as a whole.
func IsInputError(err error) bool {
	return errors.Is(err, ErrQuestionSetEmpty) ||
		errors.Is(err, ErrDuplicateQuestionID) ||
		errors.Is(err, ErrInvalidStudentCount)
}
