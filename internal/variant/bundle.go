package variant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// BundleEntry is the answer key of one variant in the consolidated bundle.
type BundleEntry struct {
	StudentIndex int       `json:"student_index"`
	AnswerKey    AnswerKey `json:"answer_key"`
	Fingerprint  string    `json:"fingerprint"`
}

// AnswerKeyBundle maps variant codes to their answer keys. Its JSON form is
// an object whose keys come out sorted by code.
type AnswerKeyBundle map[string]BundleEntry

// BuildBundle collects the answer keys of variants.
func BuildBundle(variants []*ExamVariant) AnswerKeyBundle {
	b := make(AnswerKeyBundle, len(variants))
	for _, v := range variants {
		b[v.Code] = BundleEntry{
			StudentIndex: v.StudentIndex,
			AnswerKey:    v.AnswerKey,
			Fingerprint:  v.Fingerprint,
		}
	}
	return b
}

// Codes returns the bundle's codes in sorted order.
func (b AnswerKeyBundle) Codes() []string {
	codes := make([]string, 0, len(b))
	for c := range b {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// MarshalBundle encodes b. Equal bundles give identical bytes.
func MarshalBundle(b AnswerKeyBundle) ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer key bundle: %w", err)
	}
	return data, nil
}

// UnmarshalBundle decodes the output of MarshalBundle.
func UnmarshalBundle(data []byte) (AnswerKeyBundle, error) {
	var b AnswerKeyBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode answer key bundle: %w", err)
	}
	return b, nil
}

// Verify checks every entry of b against the variants regenerated from the
// same inputs. It reports the first code whose fingerprint differs.
func (b AnswerKeyBundle) Verify(variants []*ExamVariant) error {
	byCode := make(map[string]*ExamVariant, len(variants))
	for _, v := range variants {
		byCode[v.Code] = v
	}
	for _, code := range b.Codes() {
		v, ok := byCode[code]
		if !ok {
			return fmt.Errorf("%w: code %s not produced", ErrFingerprintMismatch, code)
		}
		entry := b[code]
		if entry.Fingerprint != v.Fingerprint {
			return fmt.Errorf("%w: code %s bundle %q, regenerated %q", ErrFingerprintMismatch, code, entry.Fingerprint, v.Fingerprint)
		}
		if entry.StudentIndex != v.StudentIndex {
			return fmt.Errorf("%w: code %s bundle student %d, regenerated %d", ErrFingerprintMismatch, code, entry.StudentIndex, v.StudentIndex)
		}
		same, err := sameAnswerKey(entry.AnswerKey, v.AnswerKey)
		if err != nil {
			return err
		}
		if !same {
			return fmt.Errorf("%w: code %s answer key differs from regeneration", ErrFingerprintMismatch, code)
		}
	}
	if len(byCode) != len(b) {
		return fmt.Errorf("%w: bundle has %d codes, regeneration %d", ErrFingerprintMismatch, len(b), len(byCode))
	}
	return nil
}

// sameAnswerKey compares two keys by their encoded form.
func sameAnswerKey(a, b AnswerKey) (bool, error) {
	if len(a) == 0 && len(b) == 0 {
		return true, nil
	}
	ea, err := json.Marshal(a)
	if err != nil {
		return false, fmt.Errorf("failed to encode answer key: %w", err)
	}
	eb, err := json.Marshal(b)
	if err != nil {
		return false, fmt.Errorf("failed to encode answer key: %w", err)
	}
	return bytes.Equal(ea, eb), nil
}
