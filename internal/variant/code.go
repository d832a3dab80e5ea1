package variant

import (
	"fmt"
	"regexp"
	"sync"
)

// MasterCode identifies the instructor's annotated copy. It can never be
// produced by FormatCode.
const MasterCode = "PROFESSOR"

const (
	codeLetters = 26
	codeNumbers = 99

	// CodeCapacity is the number of distinct student codes.
	CodeCapacity = codeLetters * codeNumbers

	// DefaultMaxCodeRetries bounds how far the allocator walks past a taken code.
	DefaultMaxCodeRetries = 10000
)

var studentCodePattern = regexp.MustCompile(`^[A-Z][0-9]{2}$`)

// IsStudentCode reports whether code has the letter plus two digits shape.
func IsStudentCode(code string) bool {
	return studentCodePattern.MatchString(code)
}

// FormatCode maps a 1-based student index and a salt onto the code space.
// The letter cycles fastest: 1 -> A01, 2 -> B01, 27 -> A02.
func FormatCode(index, salt int) (string, error) {
	if index < 1 {
		return "", fmt.Errorf("student index must be positive, got %d", index)
	}
	p := (index - 1 + salt) % CodeCapacity
	if p < 0 {
		p += CodeCapacity
	}
	return fmt.Sprintf("%c%02d", 'A'+p%codeLetters, p/codeLetters+1), nil
}

// CodeAllocator hands out unique codes within one batch. The master code is
// reserved from the start.
type CodeAllocator struct {
	mu         sync.Mutex
	used       map[string]int
	maxRetries int
}

// NewCodeAllocator creates an allocator. A non-positive maxRetries uses
// DefaultMaxCodeRetries.
func NewCodeAllocator(maxRetries int) *CodeAllocator {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxCodeRetries
	}
	return &CodeAllocator{
		used:       map[string]int{MasterCode: 0},
		maxRetries: maxRetries,
	}
}

// Allocate returns the first free code for index starting at salt.
func (a *CodeAllocator) Allocate(index, salt int) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		code, err := FormatCode(index, salt+attempt)
		if err != nil {
			return "", err
		}
		if _, taken := a.used[code]; taken {
			continue
		}
		a.used[code] = index
		return code, nil
	}
	return "", fmt.Errorf("%w: student %d after %d attempts", ErrCodeSpaceExhausted, index, a.maxRetries+1)
}

// Owner returns the student index holding code.
func (a *CodeAllocator) Owner(code string) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx, ok := a.used[code]
	return idx, ok
}

// Len returns the number of codes handed out, master included.
func (a *CodeAllocator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.used)
}
