package variant

import "fmt"

func singleChoiceQuestion(id string, choices, correct int) Question {
	q := Question{ID: id, Body: "Question " + id}
	for i := 0; i < choices; i++ {
		q.Choices = append(q.Choices, Choice{
			Letter:    letterAt(i),
			Text:      fmt.Sprintf("%s option %d", id, i),
			IsCorrect: i == correct,
		})
	}
	return q
}

func mixedQuestions() []Question {
	tol := 0.05
	return []Question{
		singleChoiceQuestion("q1", 5, 2),
		{
			ID:   "q2",
			Body: "Pick the primes",
			Choices: []Choice{
				{Text: "2", IsCorrect: true},
				{Text: "4"},
				{Text: "5", IsCorrect: true},
				{Text: "9"},
			},
		},
		{
			ID:      "q3",
			Body:    "Water boils at 50C at sea level",
			Choices: []Choice{{Text: "Verdadeiro"}, {Text: "Falso", IsCorrect: true}},
		},
		{ID: "q4", Body: "Name the capital of France", ExpectedAnswer: "Paris"},
		{ID: "q5", Body: "Value of pi to two places", ExpectedAnswer: "3,14", NumericTolerance: &tol},
		{
			ID:               "q6",
			Body:             "Match country and capital",
			AssociationLeft:  []string{"Brazil", "Chile", "Peru"},
			AssociationRight: []string{"Brasilia", "Santiago", "Lima", "Quito"},
			Explanation:      "Quito is a distractor",
			Source:           "atlas p.12",
		},
	}
}
