package questionfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

const yamlDoc = `
title: Physics midterm
questions:
  - id: q1
    body: Unit of force
    choices:
      - text: Joule
      - text: Newton
        is_correct: true
      - text: Watt
  - id: q2
    body: g in m/s2
    expected_answer: 9.8
    numeric_tolerance: 0.1
  - id: q3
    body: Light is a wave
    choices:
      - text: Verdadeiro
        is_correct: true
      - text: Falso
`

const jsonDoc = `{
  "questions": [
    {"id": "m1", "body": "Match", "association_left": ["a", "b"], "association_right": ["1", "2", "3"]},
    {"id": "f1", "body": "Capital of Peru", "expected_answer": "Lima", "explanation": "Geography", "source": "Atlas"}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	doc, err := Load(writeFile(t, "exam.yaml", yamlDoc))
	require.NoError(t, err)

	assert.Equal(t, "Physics midterm", doc.Title)
	require.Len(t, doc.Questions, 3)
	assert.Equal(t, "9.8", doc.Questions[1].ExpectedAnswer)
	require.NotNil(t, doc.Questions[1].NumericTolerance)
	assert.InDelta(t, 0.1, *doc.Questions[1].NumericTolerance, 1e-9)

	assert.IsType(t, variant.SingleChoice{}, variant.Classify(doc.Questions[0]))
	assert.IsType(t, variant.Numeric{}, variant.Classify(doc.Questions[1]))
	assert.IsType(t, variant.TrueFalse{}, variant.Classify(doc.Questions[2]))
}

func TestLoadJSON(t *testing.T) {
	doc, err := Load(writeFile(t, "exam.json", jsonDoc))
	require.NoError(t, err)
	require.Len(t, doc.Questions, 2)
	assert.Equal(t, []string{"1", "2", "3"}, doc.Questions[0].AssociationRight)
	assert.Equal(t, "Atlas", doc.Questions[1].Source)
}

func TestParseRejectsInvalidFiles(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no questions", `{"questions": []}`},
		{"missing body", `{"questions": [{"id": "q1"}]}`},
		{"unknown field", `{"questions": [{"id": "q1", "body": "b", "points": 3}]}`},
		{"bad kind", `{"questions": [{"id": "q1", "body": "b", "kind": "essay"}]}`},
		{"duplicate id", `{"questions": [{"id": "q1", "body": "a"}, {"id": "q1", "body": "b"}]}`},
		{"not json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), FormatJSON)
			assert.ErrorIs(t, err, ErrInvalidFile)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("a/b.YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = FormatFromPath("exam.txt")
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestWriteRoundTrip(t *testing.T) {
	doc, err := Parse([]byte(yamlDoc), FormatYAML)
	require.NoError(t, err)

	for _, format := range []Format{FormatJSON, FormatYAML} {
		data, err := Write(doc, format)
		require.NoError(t, err)

		back, err := Parse(data, format)
		require.NoError(t, err, string(format))
		assert.Equal(t, doc.Questions, back.Questions)
	}
}
