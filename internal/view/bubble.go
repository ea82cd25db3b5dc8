package view

import (
	"html/template"
	"strings"

	"github.com/zhouzirui/health-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/health-assistant/backend/internal/model/record"
)

const (
	UserColor    = "#d1e7dd"
	NeutralColor = "#607d8b"

	lineBreak = "<br>"
)

var categoryColors = map[string]string{
	"fever":                "#ff6b6b",
	"mild":                 "#ffb74d",
	"wellness":             "#4caf50",
	record.DefaultCategory: NeutralColor,
}

// Bubble is a turn ready for display.
type Bubble struct {
	Role     chat.Role     `json:"role"`
	Icon     string        `json:"icon"`
	HTML     template.HTML `json:"html"`
	Color    string        `json:"color"`
	Category string        `json:"category,omitempty"`
}

// CategoryColor maps a category to its background color; unknown categories use the neutral color.
func CategoryColor(category string) string {
	if color, ok := categoryColors[strings.ToLower(strings.TrimSpace(category))]; ok {
		return color
	}
	return NeutralColor
}

// Render projects the log onto bubbles in log order without touching the turns.
func Render(turns []chat.Turn) []Bubble {
	bubbles := make([]Bubble, 0, len(turns))
	for _, turn := range turns {
		bubbles = append(bubbles, RenderTurn(turn))
	}
	return bubbles
}

func RenderTurn(turn chat.Turn) Bubble {
	if turn.Role == chat.RoleUser {
		return Bubble{
			Role:  turn.Role,
			Icon:  "🧑‍💻",
			HTML:  template.HTML(template.HTMLEscapeString(turn.Text)),
			Color: UserColor,
		}
	}
	return Bubble{
		Role:     turn.Role,
		Icon:     "🤖",
		HTML:     botHTML(turn.Text),
		Color:    CategoryColor(turn.Category),
		Category: turn.Category,
	}
}

// botHTML escapes the text but keeps the <br> separators produced by the matcher.
func botHTML(text string) template.HTML {
	lines := strings.Split(text, lineBreak)
	for i, line := range lines {
		lines[i] = template.HTMLEscapeString(line)
	}
	return template.HTML(strings.Join(lines, lineBreak))
}
