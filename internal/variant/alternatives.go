package variant

import (
	"fmt"
	"math"
	"strings"
)

// MaxAlternatives bounds the number of choices, and of right-hand matching
// items, a question may have.
const MaxAlternatives = 10

const (
	trueLabel  = "V"
	falseLabel = "F"

	defaultTrueText  = "Verdadeiro"
	defaultFalseText = "Falso"
)

// ShuffleAlternatives renders q for the given kind. When shuffle is false
// the authored order is kept, which is what the master variant uses.
// The returned question has no Position yet.
func ShuffleAlternatives(q Question, kind Kind, seed Seed, shuffle bool) (RenderedQuestion, AnswerKeyEntry, error) {
	rq := RenderedQuestion{
		QuestionID: q.ID,
		Kind:       kind.Name(),
		Body:       q.Body,
	}

	switch k := kind.(type) {
	case SingleChoice:
		return renderChoices(rq, q.Choices, seed, shuffle, false)
	case MultiChoice:
		return renderChoices(rq, q.Choices, seed, shuffle, true)
	case TrueFalse:
		return renderTrueFalse(rq, q)
	case FreeText:
		return rq, Text(q.ExpectedAnswer), nil
	case Numeric:
		v, ok := parseNumber(q.ExpectedAnswer)
		if !ok {
			return rq, nil, fmt.Errorf("%w: %q", ErrInvalidNumericAnswer, q.ExpectedAnswer)
		}
		if math.IsNaN(k.Tolerance) || math.IsInf(k.Tolerance, 0) {
			return rq, nil, fmt.Errorf("%w: tolerance %v is not finite", ErrInvalidNumericAnswer, k.Tolerance)
		}
		return rq, Number{Value: v, Tolerance: k.Tolerance}, nil
	case Matching:
		return renderMatching(rq, k, seed, shuffle)
	}
	return rq, nil, fmt.Errorf("unsupported question kind %T", kind)
}

func renderChoices(rq RenderedQuestion, choices []Choice, seed Seed, shuffle, multi bool) (RenderedQuestion, AnswerKeyEntry, error) {
	n := len(choices)
	if n == 0 {
		return rq, nil, ErrEmptyAlternativeSet
	}
	if n > MaxAlternatives {
		return rq, nil, fmt.Errorf("%w: %d > %d", ErrTooManyAlternatives, n, MaxAlternatives)
	}
	correct := countCorrect(choices)
	if correct == 0 {
		return rq, nil, ErrNoCorrectAlternative
	}
	if !multi && correct > 1 {
		return rq, nil, fmt.Errorf("%w: %d marked correct", ErrAmbiguousCorrectAlternative, correct)
	}

	perm := Identity(n)
	if shuffle {
		perm = Permutation(n, seed)
	}

	rq.Choices = make([]RenderedChoice, n)
	for i, c := range choices {
		pos := perm.Forward[i]
		rq.Choices[pos] = RenderedChoice{Letter: letterAt(pos), Text: c.Text}
	}
	rq.Mapping = perm.Forward
	return rq, keyForChoices(choices, perm, multi), nil
}

// renderTrueFalse always produces [V, F]. The value comes from the flagged
// choice, or from the expected answer when the question has no choices.
func renderTrueFalse(rq RenderedQuestion, q Question) (RenderedQuestion, AnswerKeyEntry, error) {
	switch len(q.Choices) {
	case 0:
		value, ok := parseTruth(q.ExpectedAnswer)
		if !ok {
			return rq, nil, fmt.Errorf("%w: expected answer %q is not true or false", ErrNoCorrectAlternative, q.ExpectedAnswer)
		}
		rq.Choices = []RenderedChoice{
			{Letter: trueLabel, Text: defaultTrueText},
			{Letter: falseLabel, Text: defaultFalseText},
		}
		rq.Mapping = []int{0, 1}
		return rq, Boolean(value), nil
	case 2:
	default:
		return rq, nil, fmt.Errorf("%w: true/false needs exactly two choices, got %d", ErrEmptyAlternativeSet, len(q.Choices))
	}

	// Choice texts that read as true/false decide which one is V; otherwise
	// the authored order is taken as [true, false].
	trueIdx := 0
	if v, ok := parseTruth(q.Choices[0].Text); ok && !v {
		trueIdx = 1
	} else if v, ok := parseTruth(q.Choices[1].Text); ok && v {
		trueIdx = 1
	}
	falseIdx := 1 - trueIdx

	switch countCorrect(q.Choices) {
	case 0:
		return rq, nil, ErrNoCorrectAlternative
	case 2:
		return rq, nil, fmt.Errorf("%w: both true and false marked correct", ErrAmbiguousCorrectAlternative)
	}

	rq.Choices = []RenderedChoice{
		{Letter: trueLabel, Text: textOr(q.Choices[trueIdx].Text, defaultTrueText)},
		{Letter: falseLabel, Text: textOr(q.Choices[falseIdx].Text, defaultFalseText)},
	}
	rq.Mapping = make([]int, 2)
	rq.Mapping[trueIdx] = 0
	rq.Mapping[falseIdx] = 1
	return rq, Boolean(q.Choices[trueIdx].IsCorrect), nil
}

func renderMatching(rq RenderedQuestion, k Matching, seed Seed, shuffle bool) (RenderedQuestion, AnswerKeyEntry, error) {
	if len(k.Left) == 0 {
		return rq, nil, ErrEmptyAlternativeSet
	}
	if len(k.Right) < len(k.Left) {
		return rq, nil, fmt.Errorf("%w: %d left, %d right", ErrInvalidAssociation, len(k.Left), len(k.Right))
	}
	if len(k.Right) > MaxAlternatives {
		return rq, nil, fmt.Errorf("%w: %d > %d", ErrTooManyAlternatives, len(k.Right), MaxAlternatives)
	}

	perm := Identity(len(k.Right))
	if shuffle {
		perm = Permutation(len(k.Right), seed)
	}

	rq.Left = append([]string(nil), k.Left...)
	rq.Right = make([]RenderedChoice, len(k.Right))
	for i, item := range k.Right {
		pos := perm.Forward[i]
		rq.Right[pos] = RenderedChoice{Letter: letterAt(pos), Text: item}
	}
	rq.Mapping = perm.Forward
	return rq, keyForMatching(len(k.Left), perm), nil
}

func textOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
