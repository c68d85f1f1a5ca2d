package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
)

const SheetName = "Run Sheet"

var ErrEmptyOutline = errors.New("outline has no sections")

var header = []any{"#", "Type", "Title", "Start (min)", "Duration (min)", "Description", "Learning objectives"}

// RunSheet lays the outline out as a facilitator run sheet: one row per
// section in position order, start offsets from the session start, and a
// totals row.
func RunSheet(o *outline.Outline, title string) (*excelize.File, error) {
	if o == nil || len(o.Sections) == 0 {
		return nil, ErrEmptyOutline
	}
	secs := append([]outline.Section(nil), o.Sections...)
	sorted := &outline.Outline{Sections: secs}
	sorted.SortByPosition()

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	row := 1
	if title = strings.TrimSpace(title); title != "" {
		if err := f.SetCellValue(SheetName, "A1", title); err != nil {
			return nil, err
		}
		row = 3
	}
	headerRow := row
	if err := setRow(f, row, header); err != nil {
		return nil, err
	}

	offset := 0
	for _, s := range sorted.Sections {
		row++
		var objectives string
		if p := s.Topic(); p != nil {
			objectives = strings.Join(p.LearningObjectives, "\n")
		}
		desc := s.Description
		if p := s.Exercise(); p != nil && desc == "" {
			desc = p.Instructions
		}
		if err := setRow(f, row, []any{s.Position, string(s.Type), s.Title, offset, s.Duration, desc, objectives}); err != nil {
			return nil, err
		}
		offset += s.Duration
	}
	row++
	if err := setRow(f, row, []any{nil, nil, "Total", nil, offset}); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if title != "" {
		titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(SheetName, "A1", "A1", titleStyle); err != nil {
			return nil, err
		}
	}
	for _, r := range []int{headerRow, row} {
		if err := f.SetCellStyle(SheetName, fmt.Sprintf("A%d", r), fmt.Sprintf("G%d", r), bold); err != nil {
			return nil, err
		}
	}
	widths := map[string]float64{"A": 5, "B": 12, "C": 36, "D": 11, "E": 14, "F": 60, "G": 48}
	for col, w := range widths {
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func setRow(f *excelize.File, row int, vals []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(SheetName, cell, &vals)
}

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Filename turns a session title into a download name.
func Filename(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "run-sheet"
	}
	return name + ".xlsx"
}

// Bytes renders the run sheet straight to an xlsx payload.
func Bytes(o *outline.Outline, title string) ([]byte, error) {
	f, err := RunSheet(o, title)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
