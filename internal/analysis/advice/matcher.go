package advice

import (
	"regexp"
	"strings"

	"github.com/zhouzirui/health-assistant/backend/internal/model/record"
)

const (
	// FallbackResponse is returned when no record shares a token with the query.
	FallbackResponse = "I don't have information about that. Please consult a doctor."

	bullet    = "• "
	lineBreak = "<br>"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

// Advice is the outcome of matching one query against the record store.
type Advice struct {
	Response string `json:"response"`
	Category string `json:"category"`
	Disease  string `json:"disease,omitempty"`
	Score    int    `json:"score"`
	Matched  bool   `json:"matched"`
}

// Matcher scores records by keyword overlap with a free-text query.
type Matcher struct {
	records record.Store
}

func NewMatcher(records record.Store) *Matcher {
	return &Matcher{records: records}
}

// Match returns the bulleted cure and category of the best scoring record.
// A record scores one point per query token found anywhere inside its disease
// text; the first loaded record wins ties. Without any positive score the
// fixed fallback with the neutral category is returned.
func (m *Matcher) Match(query string) Advice {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return fallback()
	}

	var (
		best      record.Record
		bestScore int
	)
	for _, rec := range m.records.All() {
		score := Score(tokens, rec.Disease)
		if score > bestScore {
			best = rec
			bestScore = score
		}
	}

	if bestScore == 0 {
		return fallback()
	}

	return Advice{
		Response: FormatCure(best),
		Category: best.Category,
		Disease:  best.Disease,
		Score:    bestScore,
		Matched:  true,
	}
}

// Tokenize lowercases and trims text and splits it into runs of word characters.
func Tokenize(text string) []string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return nil
	}
	return wordPattern.FindAllString(normalized, -1)
}

// Score counts the tokens that occur as substrings of disease. Repeated tokens count each time.
func Score(tokens []string, disease string) int {
	score := 0
	for _, token := range tokens {
		if strings.Contains(disease, token) {
			score++
		}
	}
	return score
}

// FormatCure renders the remedies of rec as a bulleted list joined by line breaks.
func FormatCure(rec record.Record) string {
	remedies := rec.Remedies()
	lines := make([]string, len(remedies))
	for i, remedy := range remedies {
		lines[i] = bullet + remedy
	}
	return strings.Join(lines, lineBreak)
}

func fallback() Advice {
	return Advice{Response: FallbackResponse, Category: record.DefaultCategory}
}
