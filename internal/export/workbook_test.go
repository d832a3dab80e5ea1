package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

func sampleBatch(t *testing.T, students int) *variant.BatchResult {
	t.Helper()
	tol := 0.1
	questions := []variant.Question{
		{ID: "q1", Body: "2+2", Choices: []variant.Choice{{Text: "3"}, {Text: "4", IsCorrect: true}, {Text: "5"}}},
		{ID: "q2", Body: "Sky is green", Choices: []variant.Choice{{Text: "Verdadeiro"}, {Text: "Falso", IsCorrect: true}}},
		{ID: "q3", Body: "Half of 5", ExpectedAnswer: "2.5", NumericTolerance: &tol, Explanation: "5/2", Source: "Book 1"},
	}
	res, err := variant.NewOrchestrator(variant.DefaultConfig()).
		GenerateBatch(context.Background(), questions, students, "export-test", true)
	require.NoError(t, err)
	return res
}

func TestAnswerKeysWorkbook(t *testing.T) {
	res := sampleBatch(t, 3)

	data, err := AnswerKeysWorkbook(res.Bundle, res.Master())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{KeysSheet, MasterSheet}, f.GetSheetList())

	rows, err := f.GetRows(KeysSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Code", "Student", "Fingerprint", "1", "2", "3"}, rows[0])
	assert.Equal(t, variant.MasterCode, rows[1][0])

	for _, row := range rows[1:] {
		entry, ok := res.Bundle[row[0]]
		require.True(t, ok, row[0])
		assert.Equal(t, entry.Fingerprint, row[2])
		for p := 1; p <= 3; p++ {
			assert.Equal(t, entry.AnswerKey[p].String(), row[2+p])
		}
	}

	master, err := f.GetRows(MasterSheet)
	require.NoError(t, err)
	require.Len(t, master, 4)
	assert.Equal(t, []string{"3", "3", "q3", "numeric", "2.5 ± 0.1", "5/2", "Book 1"}, master[3])
}

func TestAnswerKeysWorkbookWithoutMaster(t *testing.T) {
	res := sampleBatch(t, 2)
	delete(res.Bundle, variant.MasterCode)

	data, err := AnswerKeysWorkbook(res.Bundle, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{KeysSheet}, f.GetSheetList())
	rows, err := f.GetRows(KeysSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
