// Package export renders answer key bundles as spreadsheets for graders.
package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

const (
	KeysSheet   = "Answer Keys"
	MasterSheet = "Master"
)

// AnswerKeysWorkbook builds an xlsx file with one row per variant code and
// one column per position. When master is not nil a second sheet lists
// the annotated master questions.
func AnswerKeysWorkbook(bundle variant.AnswerKeyBundle, master *variant.ExamVariant) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", KeysSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeKeys(f, header, bundle); err != nil {
		return nil, err
	}
	if master != nil {
		if err := writeMaster(f, header, master); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeKeys(f *excelize.File, header int, bundle variant.AnswerKeyBundle) error {
	codes := orderedCodes(bundle)
	positions := 0
	for _, entry := range bundle {
		positions = max(positions, len(entry.AnswerKey))
	}

	row := []any{"Code", "Student", "Fingerprint"}
	for p := 1; p <= positions; p++ {
		row = append(row, p)
	}
	if err := setRow(f, KeysSheet, 1, row); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(row), 1)
	if err := f.SetCellStyle(KeysSheet, "A1", last, header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, code := range codes {
		entry := bundle[code]
		row := []any{code, entry.StudentIndex, entry.Fingerprint}
		for p := 1; p <= positions; p++ {
			if e, ok := entry.AnswerKey[p]; ok {
				row = append(row, e.String())
			} else {
				row = append(row, "")
			}
		}
		if err := setRow(f, KeysSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(KeysSheet, "A", "B", 12); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(KeysSheet, "C", "C", 36); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	return f.SetPanes(KeysSheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	})
}

func writeMaster(f *excelize.File, header int, master *variant.ExamVariant) error {
	if _, err := f.NewSheet(MasterSheet); err != nil {
		return fmt.Errorf("failed to create master sheet: %w", err)
	}

	row := []any{"Position", "Original Position", "Question", "Kind", "Answer", "Explanation", "Source"}
	if err := setRow(f, MasterSheet, 1, row); err != nil {
		return err
	}
	if err := f.SetCellStyle(MasterSheet, "A1", "G1", header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, q := range master.Questions {
		orig := q.Position
		if q.OriginalPosition != nil {
			orig = *q.OriginalPosition
		}
		answer := ""
		if e, ok := master.AnswerKey[q.Position]; ok {
			answer = e.String()
		}
		row := []any{q.Position, orig, q.QuestionID, string(q.Kind), answer, q.Explanation, q.Source}
		if err := setRow(f, MasterSheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(MasterSheet, "F", "G", 48)
}

func setRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return fmt.Errorf("invalid cell %d,%d: %w", col+1, rowNum, err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// orderedCodes puts the master first, then student codes in order.
func orderedCodes(bundle variant.AnswerKeyBundle) []string {
	codes := bundle.Codes()
	sort.SliceStable(codes, func(i, j int) bool {
		return codes[i] == variant.MasterCode && codes[j] != variant.MasterCode
	})
	return codes
}
