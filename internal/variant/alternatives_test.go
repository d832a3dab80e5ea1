package variant

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func choiceText(rq RenderedQuestion, letter string) string {
	for _, c := range rq.Choices {
		if c.Letter == letter {
			return c.Text
		}
	}
	return ""
}

func TestShuffleSingleChoiceKeyFollowsCorrectText(t *testing.T) {
	q := singleChoiceQuestion("q1", 5, 3)
	for i := 1; i <= 20; i++ {
		seed := DeriveSeed("exam-2024", i, alternativeSalt(q.ID))
		rq, key, err := ShuffleAlternatives(q, SingleChoice{}, seed, true)
		require.NoError(t, err)

		letter, ok := key.(Letter)
		require.True(t, ok)
		assert.Equal(t, q.Choices[3].Text, choiceText(rq, string(letter)))

		require.Len(t, rq.Choices, 5)
		for pos, c := range rq.Choices {
			assert.Equal(t, letterAt(pos), c.Letter)
		}
	}
}

func TestShuffleWithoutShuffleKeepsAuthoredOrder(t *testing.T) {
	q := singleChoiceQuestion("q1", 4, 1)
	rq, key, err := ShuffleAlternatives(q, SingleChoice{}, DeriveSeed("s", 0, "x"), false)
	require.NoError(t, err)
	assert.Equal(t, Letter("B"), key)
	assert.Equal(t, []int{0, 1, 2, 3}, rq.Mapping)
}

func TestShuffleMultiChoiceSortsLetters(t *testing.T) {
	q := mixedQuestions()[1]
	for i := 1; i <= 10; i++ {
		rq, key, err := ShuffleAlternatives(q, MultiChoice{}, DeriveSeed("m", i, "x"), true)
		require.NoError(t, err)

		letters, ok := key.(Letters)
		require.True(t, ok)
		require.Len(t, letters, 2)
		assert.True(t, letters[0] < letters[1])

		texts := []string{choiceText(rq, letters[0]), choiceText(rq, letters[1])}
		assert.ElementsMatch(t, []string{"2", "5"}, texts)
	}
}

func TestShuffleTrueFalse(t *testing.T) {
	t.Run("from flagged choice", func(t *testing.T) {
		q := Question{ID: "tf", Choices: []Choice{{Text: "Falso", IsCorrect: true}, {Text: "Verdadeiro"}}}
		rq, key, err := ShuffleAlternatives(q, TrueFalse{}, DeriveSeed("s", 1, "x"), true)
		require.NoError(t, err)
		assert.Equal(t, Boolean(false), key)
		assert.Equal(t, "V", rq.Choices[0].Letter)
		assert.Equal(t, "Verdadeiro", rq.Choices[0].Text)
		assert.Equal(t, "F", rq.Choices[1].Letter)
		assert.Equal(t, []int{1, 0}, rq.Mapping)
	})

	t.Run("from expected answer", func(t *testing.T) {
		q := Question{ID: "tf", Kind: KindTrueFalse, ExpectedAnswer: "sim"}
		rq, key, err := ShuffleAlternatives(q, TrueFalse{}, Seed{}, true)
		require.NoError(t, err)
		assert.Equal(t, Boolean(true), key)
		assert.Equal(t, []RenderedChoice{{"V", "Verdadeiro"}, {"F", "Falso"}}, rq.Choices)
	})

	t.Run("unreadable expected answer", func(t *testing.T) {
		q := Question{ID: "tf", Kind: KindTrueFalse, ExpectedAnswer: "perhaps"}
		_, _, err := ShuffleAlternatives(q, TrueFalse{}, Seed{}, true)
		assert.ErrorIs(t, err, ErrNoCorrectAlternative)
	})

	t.Run("both flagged", func(t *testing.T) {
		q := Question{ID: "tf", Choices: []Choice{{Text: "V", IsCorrect: true}, {Text: "F", IsCorrect: true}}}
		_, _, err := ShuffleAlternatives(q, TrueFalse{}, Seed{}, true)
		assert.ErrorIs(t, err, ErrAmbiguousCorrectAlternative)
	})
}

func TestShuffleMatching(t *testing.T) {
	q := mixedQuestions()[5]
	kind := Classify(q)
	for i := 1; i <= 10; i++ {
		rq, key, err := ShuffleAlternatives(q, kind, DeriveSeed("match", i, "x"), true)
		require.NoError(t, err)

		m, ok := key.(Mapping)
		require.True(t, ok)
		require.Len(t, m, 3)
		assert.Equal(t, q.AssociationLeft, rq.Left)
		require.Len(t, rq.Right, 4)
		for left, right := range m {
			assert.Equal(t, q.AssociationRight[left], rq.Right[right].Text)
		}
	}
}

func TestShuffleFreeTextAndNumeric(t *testing.T) {
	qs := mixedQuestions()

	_, key, err := ShuffleAlternatives(qs[3], Classify(qs[3]), Seed{}, true)
	require.NoError(t, err)
	assert.Equal(t, Text("Paris"), key)

	_, key, err = ShuffleAlternatives(qs[4], Classify(qs[4]), Seed{}, true)
	require.NoError(t, err)
	assert.Equal(t, Number{Value: 3.14, Tolerance: 0.05}, key)

	_, _, err = ShuffleAlternatives(Question{ID: "n", ExpectedAnswer: "abc"}, Numeric{}, Seed{}, true)
	assert.ErrorIs(t, err, ErrInvalidNumericAnswer)

	for _, tol := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		q := Question{ID: "n", Kind: KindNumeric, ExpectedAnswer: "2", NumericTolerance: &tol}
		_, _, err = ShuffleAlternatives(q, Classify(q), Seed{}, true)
		assert.ErrorIs(t, err, ErrInvalidNumericAnswer, "tolerance %v", tol)
	}
}

func TestShuffleStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		q    Question
		kind Kind
		want error
	}{
		{"no choices", Question{ID: "e"}, SingleChoice{}, ErrEmptyAlternativeSet},
		{"none correct", singleChoiceQuestion("n", 4, -1), SingleChoice{}, ErrNoCorrectAlternative},
		{"eleven choices", singleChoiceQuestion("t", 11, 0), SingleChoice{}, ErrTooManyAlternatives},
		{"two correct single", Question{ID: "a", Choices: []Choice{{Text: "x", IsCorrect: true}, {Text: "y", IsCorrect: true}}}, SingleChoice{}, ErrAmbiguousCorrectAlternative},
		{"short right column", Question{ID: "m"}, Matching{Left: []string{"a", "b"}, Right: []string{"1"}}, ErrInvalidAssociation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ShuffleAlternatives(tt.q, tt.kind, Seed{}, true)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsStructuralError(err))
		})
	}
}

func TestShuffleSingleAlternativeIsAllowed(t *testing.T) {
	q := singleChoiceQuestion("one", 1, 0)
	rq, key, err := ShuffleAlternatives(q, SingleChoice{}, DeriveSeed("s", 1, "x"), true)
	require.NoError(t, err)
	assert.Equal(t, Letter("A"), key)
	assert.Len(t, rq.Choices, 1)
}

func TestAssemblerCheck(t *testing.T) {
	a := NewAssembler(Config{})
	for _, q := range mixedQuestions() {
		_, err := a.Check(q)
		assert.NoError(t, err, q.ID)
	}

	_, err := a.Check(singleChoiceQuestion("bad", 3, -1))
	assert.ErrorIs(t, err, ErrNoCorrectAlternative)

	strict := NewAssembler(Config{StrictMultiCorrect: true})
	_, err = strict.Check(mixedQuestions()[1])
	assert.ErrorIs(t, err, ErrAmbiguousCorrectAlternative)
}
