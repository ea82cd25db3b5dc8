package record

import "strings"

// DefaultCategory is used when the dataset carries no category-like column.
const DefaultCategory = "neutral"

// Record is one disease/cure/category row of the advice dataset.
type Record struct {
	Disease  string `json:"disease"`
	Cure     string `json:"cure"`
	Category string `json:"category"`
}

// Remedies splits the pipe-delimited cure field into trimmed fragments.
func (r Record) Remedies() []string {
	parts := strings.Split(r.Cure, "|")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}
