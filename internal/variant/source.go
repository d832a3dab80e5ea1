package variant

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrQuestionNotFound is returned by a QuestionSource when an id is unknown.
var ErrQuestionNotFound = errors.New("question not found")

// QuestionSource supplies question snapshots by id. Results come back in
// the order the ids were requested.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, ids []string) ([]Question, error)
}

// StaticSource serves questions from memory.
type StaticSource struct {
	byID map[string]Question
}

// NewStaticSource indexes questions by id; a later duplicate wins.
func NewStaticSource(questions []Question) *StaticSource {
	s := &StaticSource{byID: make(map[string]Question, len(questions))}
	for _, q := range questions {
		s.byID[q.ID] = q
	}
	return s
}

func (s *StaticSource) FetchQuestions(ctx context.Context, ids []string) ([]Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Question, 0, len(ids))
	var missing []string
	for _, id := range ids {
		q, ok := s.byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, q)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrQuestionNotFound, strings.Join(missing, ", "))
	}
	return out, nil
}
