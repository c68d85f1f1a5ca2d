package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
)

// Row is one topic of an imported catalog.
type Row struct {
	Name             string
	Category         string
	Description      string
	LearningOutcomes []string
	TrainerNotes     string
	MaterialsNeeded  []string
	DeliveryGuidance string
}

var ErrMissingName = errors.New("topic catalog needs a Name column")

// Parse reads a catalog as CSV or, when format is "xlsx", from the first
// sheet of a workbook. The first row is the header; column names are matched
// loosely (case, spaces, dashes and underscores ignored).
func Parse(r io.Reader, format string) ([]Row, error) {
	var records [][]string
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "xlsx":
		x, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("open xlsx: %w", err)
		}
		defer x.Close()
		sheets := x.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		if records, err = x.GetRows(sheets[0]); err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
		}
	case "csv", "":
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		cr := csv.NewReader(bytes.NewReader(b))
		cr.FieldsPerRecord = -1
		if records, err = cr.ReadAll(); err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	return fromRecords(records)
}

func norm(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "\uFEFF") // BOM
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}

func fromRecords(records [][]string) ([]Row, error) {
	if len(records) == 0 {
		return nil, ErrMissingName
	}
	hmap := map[string]int{}
	for i, h := range records[0] {
		hmap[norm(h)] = i
	}
	findAny := func(keys ...string) int {
		for _, k := range keys {
			if idx, ok := hmap[norm(k)]; ok {
				return idx
			}
		}
		return -1
	}

	cName := findAny("Name", "Topic", "Title")
	if cName == -1 {
		return nil, fmt.Errorf("%w; found headers: %v", ErrMissingName, records[0])
	}
	cCat := findAny("Category")
	cDesc := findAny("Description", "Summary")
	cOut := findAny("LearningOutcomes", "Outcomes", "Objectives")
	cNotes := findAny("TrainerNotes", "Notes")
	cMat := findAny("MaterialsNeeded", "Materials")
	cDel := findAny("DeliveryGuidance", "Delivery")

	var rows []Row
	for _, rec := range records[1:] {
		get := func(idx int) string {
			if idx < 0 || idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}
		name := get(cName)
		if name == "" {
			continue
		}
		rows = append(rows, Row{
			Name:             name,
			Category:         get(cCat),
			Description:      get(cDesc),
			LearningOutcomes: splitList(get(cOut)),
			TrainerNotes:     get(cNotes),
			MaterialsNeeded:  splitList(get(cMat)),
			DeliveryGuidance: get(cDel),
		})
	}
	return rows, nil
}

// splitList accepts items separated by semicolons or newlines.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '\n' }) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Outlines groups rows by category into outlines of topic sections, the
// shape the synchronizer consumes.
func Outlines(rows []Row) map[string]*outline.Outline {
	out := map[string]*outline.Outline{}
	for i, r := range rows {
		o := out[r.Category]
		if o == nil {
			o = &outline.Outline{}
			out[r.Category] = o
		}
		o.Sections = append(o.Sections, outline.Section{
			ID:          fmt.Sprintf("import-%d", i+1),
			Type:        outline.KindTopic,
			Title:       r.Name,
			Duration:    outline.DefaultDuration(outline.KindTopic),
			Description: r.Description,
			Payload: outline.TopicPayload{
				LearningObjectives: r.LearningOutcomes,
				MaterialsNeeded:    r.MaterialsNeeded,
				TrainerNotes:       r.TrainerNotes,
				DeliveryGuidance:   r.DeliveryGuidance,
			},
		})
	}
	for _, o := range out {
		o.Finalize()
	}
	return out
}
