package variant

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// EntryType tags the serialized form of an answer key entry.
type EntryType string

const (
	EntryLetter  EntryType = "letter"
	EntryLetters EntryType = "letters"
	EntryBoolean EntryType = "boolean"
	EntryText    EntryType = "text"
	EntryNumber  EntryType = "number"
	EntryMapping EntryType = "mapping"
)

// AnswerKeyEntry is the correct answer for one rendered position.
type AnswerKeyEntry interface {
	Type() EntryType
	// String renders the entry for people: "B", "A, C", "V", "3.5 ± 0.1", "1-C, 2-A".
	String() string
	isAnswerKeyEntry()
}

// Letter is the key of a single-choice question.
type Letter string

// Letters is the key of a multi-choice question, always sorted.
type Letters []string

// Boolean is the key of a true/false question. It renders as V or F.
type Boolean bool

// Text is the key of a free-text question, copied verbatim.
type Text string

// Number is the key of a numeric question.
type Number struct {
	Value     float64
	Tolerance float64
}

// Mapping is the key of a matching question: Mapping[i] is the index of the
// right-hand item, as rendered, that pairs with left-hand item i.
type Mapping []int

func (Letter) Type() EntryType  { return EntryLetter }
func (Letters) Type() EntryType { return EntryLetters }
func (Boolean) Type() EntryType { return EntryBoolean }
func (Text) Type() EntryType    { return EntryText }
func (Number) Type() EntryType  { return EntryNumber }
func (Mapping) Type() EntryType { return EntryMapping }

func (Letter) isAnswerKeyEntry()  {}
func (Letters) isAnswerKeyEntry() {}
func (Boolean) isAnswerKeyEntry() {}
func (Text) isAnswerKeyEntry()    {}
func (Number) isAnswerKeyEntry()  {}
func (Mapping) isAnswerKeyEntry() {}

func (l Letter) String() string  { return string(l) }
func (l Letters) String() string { return strings.Join(l, ", ") }
func (t Text) String() string    { return string(t) }

func (b Boolean) String() string {
	if b {
		return "V"
	}
	return "F"
}

func (n Number) String() string {
	if n.Tolerance == 0 {
		return formatFloat(n.Value)
	}
	return formatFloat(n.Value) + " ± " + formatFloat(n.Tolerance)
}

func (m Mapping) String() string {
	parts := make([]string, len(m))
	for i, r := range m {
		parts[i] = fmt.Sprintf("%d-%s", i+1, letterAt(r))
	}
	return strings.Join(parts, ", ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func letterAt(i int) string {
	return string(rune('A' + i))
}

func letterIndex(s string) (int, bool) {
	if len(s) != 1 || s[0] < 'A' || s[0] > 'Z' {
		return 0, false
	}
	return int(s[0] - 'A'), true
}

// ===== JSON ENCODING =====

type entryEnvelope struct {
	Type      EntryType       `json:"type"`
	Value     json.RawMessage `json:"value"`
	Tolerance json.Number     `json:"tolerance,omitempty"`
}

func encodeEntry(e AnswerKeyEntry) ([]byte, error) {
	env := entryEnvelope{Type: e.Type()}
	var value any
	switch v := e.(type) {
	case Letter:
		value = string(v)
	case Letters:
		sorted := slices.Clone([]string(v))
		sort.Strings(sorted)
		value = sorted
	case Boolean:
		value = v.String()
	case Text:
		value = string(v)
	case Number:
		env.Value = json.RawMessage(formatFloat(v.Value))
		if v.Tolerance != 0 {
			env.Tolerance = json.Number(formatFloat(v.Tolerance))
		}
	case Mapping:
		letters := make([]string, len(v))
		for i, r := range v {
			letters[i] = letterAt(r)
		}
		value = letters
	default:
		return nil, fmt.Errorf("unsupported answer key entry %T", e)
	}
	if env.Value == nil {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		env.Value = raw
	}
	return json.Marshal(env)
}

func (l Letter) MarshalJSON() ([]byte, error)  { return encodeEntry(l) }
func (l Letters) MarshalJSON() ([]byte, error) { return encodeEntry(l) }
func (b Boolean) MarshalJSON() ([]byte, error) { return encodeEntry(b) }
func (t Text) MarshalJSON() ([]byte, error)    { return encodeEntry(t) }
func (n Number) MarshalJSON() ([]byte, error)  { return encodeEntry(n) }
func (m Mapping) MarshalJSON() ([]byte, error) { return encodeEntry(m) }

// DecodeEntry parses the tagged form produced by MarshalJSON.
func DecodeEntry(data []byte) (AnswerKeyEntry, error) {
	var env entryEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode answer key entry: %w", err)
	}

	switch env.Type {
	case EntryLetter:
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return nil, fmt.Errorf("failed to decode letter entry: %w", err)
		}
		return Letter(s), nil
	case EntryLetters:
		var ls []string
		if err := json.Unmarshal(env.Value, &ls); err != nil {
			return nil, fmt.Errorf("failed to decode letters entry: %w", err)
		}
		sort.Strings(ls)
		return Letters(ls), nil
	case EntryBoolean:
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return nil, fmt.Errorf("failed to decode boolean entry: %w", err)
		}
		switch s {
		case "V":
			return Boolean(true), nil
		case "F":
			return Boolean(false), nil
		}
		return nil, fmt.Errorf("invalid boolean entry %q", s)
	case EntryText:
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return nil, fmt.Errorf("failed to decode text entry: %w", err)
		}
		return Text(s), nil
	case EntryNumber:
		var n Number
		if err := json.Unmarshal(env.Value, &n.Value); err != nil {
			return nil, fmt.Errorf("failed to decode number entry: %w", err)
		}
		if env.Tolerance != "" {
			tol, err := env.Tolerance.Float64()
			if err != nil {
				return nil, fmt.Errorf("failed to decode number tolerance: %w", err)
			}
			n.Tolerance = tol
		}
		return n, nil
	case EntryMapping:
		var letters []string
		if err := json.Unmarshal(env.Value, &letters); err != nil {
			return nil, fmt.Errorf("failed to decode mapping entry: %w", err)
		}
		m := make(Mapping, len(letters))
		for i, l := range letters {
			idx, ok := letterIndex(l)
			if !ok {
				return nil, fmt.Errorf("invalid mapping letter %q", l)
			}
			m[i] = idx
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown answer key entry type %q", env.Type)
}

// AnswerKey maps 1-based rendered positions to their correct answer.
type AnswerKey map[int]AnswerKeyEntry

// Positions returns the positions in ascending order.
func (k AnswerKey) Positions() []int {
	out := make([]int, 0, len(k))
	for p := range k {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func (k *AnswerKey) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*k = nil
		return nil
	}
	out := make(AnswerKey, len(raw))
	for pos, entry := range raw {
		p, err := strconv.Atoi(pos)
		if err != nil {
			return fmt.Errorf("invalid answer key position %q", pos)
		}
		e, err := DecodeEntry(entry)
		if err != nil {
			return fmt.Errorf("position %d: %w", p, err)
		}
		out[p] = e
	}
	*k = out
	return nil
}

// ===== KEY BUILDERS =====

// keyForChoices builds the key of a choice question given the permutation
// applied to its choices.
func keyForChoices(choices []Choice, perm Perm, multi bool) AnswerKeyEntry {
	var letters []string
	for i, c := range choices {
		if c.IsCorrect {
			letters = append(letters, letterAt(perm.Forward[i]))
		}
	}
	sort.Strings(letters)
	if multi {
		return Letters(letters)
	}
	return Letter(letters[0])
}

// keyForMatching builds the key of a matching question given the
// permutation applied to its right-hand column.
func keyForMatching(leftCount int, perm Perm) AnswerKeyEntry {
	m := make(Mapping, leftCount)
	for i := range m {
		m[i] = perm.Forward[i]
	}
	return m
}
