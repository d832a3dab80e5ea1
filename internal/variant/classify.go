package variant

import (
	"math"
	"strconv"
	"strings"
)

// Classify decides the kind of q. It never fails: a question that matches
// no rule is treated as free text.
//
// Rules, first match wins:
//  1. an explicit, known Kind
//  2. no choices and a numeric expected answer: Numeric
//  3. no choices and a non-empty expected answer: FreeText
//  4. exactly two choices reading as true/false: TrueFalse
//  5. more than one correct choice: MultiChoice
//  6. association lists present: Matching
//  7. any choices: SingleChoice
func Classify(q Question) Kind {
	if q.Kind.Valid() {
		return kindFor(q.Kind, q)
	}

	if len(q.Choices) == 0 {
		expected := strings.TrimSpace(q.ExpectedAnswer)
		if _, ok := parseNumber(expected); ok {
			return numericKind(q)
		}
		if expected != "" {
			return FreeText{}
		}
	}

	if len(q.Choices) == 2 && isTrueFalsePair(q.Choices[0].Text, q.Choices[1].Text) {
		return TrueFalse{}
	}

	if countCorrect(q.Choices) > 1 {
		return MultiChoice{}
	}

	if len(q.AssociationLeft) > 0 || len(q.AssociationRight) > 0 {
		return matchingKind(q)
	}

	if len(q.Choices) > 0 {
		return SingleChoice{}
	}

	return FreeText{}
}

func kindFor(name KindName, q Question) Kind {
	switch name {
	case KindSingleChoice:
		return SingleChoice{}
	case KindMultiChoice:
		return MultiChoice{}
	case KindTrueFalse:
		return TrueFalse{}
	case KindNumeric:
		return numericKind(q)
	case KindMatching:
		return matchingKind(q)
	default:
		return FreeText{}
	}
}

func numericKind(q Question) Kind {
	var tol float64
	if q.NumericTolerance != nil {
		tol = math.Abs(*q.NumericTolerance)
	}
	return Numeric{Tolerance: tol}
}

func matchingKind(q Question) Kind {
	return Matching{
		Left:  append([]string(nil), q.AssociationLeft...),
		Right: append([]string(nil), q.AssociationRight...),
	}
}

func countCorrect(choices []Choice) int {
	n := 0
	for _, c := range choices {
		if c.IsCorrect {
			n++
		}
	}
	return n
}

// parseNumber accepts a plain decimal number, with either '.' or a single ','
// as the decimal separator.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

var truthWords = map[string]bool{
	"true":       true,
	"verdadeiro": true,
	"v":          true,
	"yes":        true,
	"sim":        true,
	"false":      false,
	"falso":      false,
	"f":          false,
	"no":         false,
	"não":        false,
	"nao":        false,
}

// parseTruth maps a true/false word in English or Portuguese to its value.
func parseTruth(s string) (value, ok bool) {
	value, ok = truthWords[strings.ToLower(strings.TrimSpace(s))]
	return value, ok
}

func isTrueFalsePair(a, b string) bool {
	va, okA := parseTruth(a)
	vb, okB := parseTruth(b)
	return okA && okB && va != vb
}
