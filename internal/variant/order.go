package variant

// OrderQuestions returns questions in the order given by seed, plus the
// new 0-based position of each original question.
func OrderQuestions(questions []Question, seed Seed) ([]Question, []int) {
	perm := Permutation(len(questions), seed)
	out := make([]Question, len(questions))
	for i, q := range questions {
		out[perm.Forward[i]] = q
	}
	return out, perm.Forward
}
