package variant

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// FingerprintBytes is the number of digest bytes kept in a fingerprint.
const FingerprintBytes = 16

// fingerprintPayload is the canonical form that gets hashed. Field order is
// fixed by the struct and answer key positions are emitted in sorted order.
type fingerprintPayload struct {
	QuestionIDs []string  `json:"question_ids"`
	Mappings    [][]int   `json:"mappings"`
	AnswerKey   AnswerKey `json:"answer_key"`
}

// Fingerprint hashes the rendered question order, every choice mapping and
// the answer key of v. Code, student index and rendered text do not take part.
func Fingerprint(v *ExamVariant) (string, error) {
	payload := fingerprintPayload{
		QuestionIDs: make([]string, len(v.Questions)),
		Mappings:    make([][]int, len(v.Questions)),
		AnswerKey:   v.AnswerKey,
	}
	if payload.AnswerKey == nil {
		payload.AnswerKey = AnswerKey{}
	}
	for i, q := range v.Questions {
		payload.QuestionIDs[i] = q.QuestionID
		payload.Mappings[i] = q.Mapping
		if payload.Mappings[i] == nil {
			payload.Mappings[i] = []int{}
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode fingerprint payload: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:FingerprintBytes]), nil
}

// VerifyFingerprint recomputes the fingerprint of v and compares it with the
// stored one.
func VerifyFingerprint(v *ExamVariant) error {
	got, err := Fingerprint(v)
	if err != nil {
		return err
	}
	if got != v.Fingerprint {
		return fmt.Errorf("%w: variant %s stored %q, computed %q", ErrFingerprintMismatch, v.Code, v.Fingerprint, got)
	}
	return nil
}
