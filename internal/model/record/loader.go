package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Field is a canonical record field a dataset column can resolve to.
type Field string

const (
	FieldDisease  Field = "disease"
	FieldCure     Field = "cure"
	FieldCategory Field = "category"
)

// columnRule maps a set of header keywords to a canonical field. Rules are
// evaluated in order and the first keyword contained in a header wins.
type columnRule struct {
	field    Field
	keywords []string
}

var columnRules = []columnRule{
	{field: FieldDisease, keywords: []string{"disease", "illness", "symptom"}},
	{field: FieldCure, keywords: []string{"cure", "treatment", "medicine"}},
	{field: FieldCategory, keywords: []string{"category", "type", "severity"}},
}

// DataError reports a dataset whose headers cannot be mapped to the required fields.
type DataError struct {
	Missing []Field
}

func (e *DataError) Error() string {
	return fmt.Sprintf("dataset must contain the following columns: '%s' and '%s' (missing: %s)",
		FieldDisease, FieldCure, joinFields(e.Missing))
}

func joinFields(fields []Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// LoadFile reads and normalizes the dataset at path.
func LoadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	records, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", path, err)
	}
	return records, nil
}

// Parse reads a header row followed by data rows. Short rows are padded with
// empty values; disease text is lowercased and trimmed.
func Parse(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &DataError{Missing: []Field{FieldDisease, FieldCure}}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := resolveColumns(header)

	var missing []Field
	for _, required := range []Field{FieldDisease, FieldCure} {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, &DataError{Missing: missing}
	}

	categoryIdx, hasCategory := columns[FieldCategory]

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+2, err)
		}

		rec := Record{
			Disease:  strings.ToLower(strings.TrimSpace(cell(row, columns[FieldDisease]))),
			Cure:     cell(row, columns[FieldCure]),
			Category: DefaultCategory,
		}
		if hasCategory {
			rec.Category = cell(row, categoryIdx)
		}
		records = append(records, rec)
	}

	return records, nil
}

// resolveColumns returns the column index of every field that some header maps to.
// When several headers map to one field the left-most is kept.
func resolveColumns(header []string) map[Field]int {
	columns := make(map[Field]int, len(columnRules))
	for idx, name := range header {
		field, ok := matchColumn(name)
		if !ok {
			continue
		}
		if _, seen := columns[field]; !seen {
			columns[field] = idx
		}
	}
	return columns
}

func matchColumn(name string) (Field, bool) {
	normalized := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
	for _, rule := range columnRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(normalized, keyword) {
				return rule.field, true
			}
		}
	}
	return "", false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// Incomplete counts records whose disease or cure is empty after normalization.
func Incomplete(records []Record) int {
	count := 0
	for _, rec := range records {
		if rec.Disease == "" || strings.TrimSpace(rec.Cure) == "" {
			count++
		}
	}
	return count
}
