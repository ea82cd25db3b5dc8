package translate

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/health-assistant/backend/internal/model/language"
)

const systemPrompt = `You are a medical translation engine for a health assistant chat.
Translate the user's text from %s to %s.
Rules:
- Return only the translation, without quotes, notes or explanations.
- Keep HTML tags such as <br> and bullet characters (•) exactly where they are.
- Keep medicine names and dosages unchanged.`

// BuildSystemPrompt describes the translation direction for a chat model.
func BuildSystemPrompt(source, target language.Code) string {
	return fmt.Sprintf(systemPrompt, source.Name(), target.Name())
}

// BuildSinglePrompt packs instructions and text into one prompt for models
// without a separate system role.
func BuildSinglePrompt(text string, source, target language.Code) string {
	var builder strings.Builder
	builder.WriteString(BuildSystemPrompt(source, target))
	builder.WriteString("\n\nText:\n")
	builder.WriteString(text)
	return builder.String()
}

// quotePairs maps an opening quote to the closing quote that wraps a reply.
var quotePairs = map[rune]rune{
	'"': '"',
	'\'': '\'',
	'“': '”',
}

// cleanOutput strips one pair of quotes some models wrap around a bare
// translation. Quotes that are part of the text stay.
func cleanOutput(out string) string {
	out = strings.TrimSpace(out)
	runes := []rune(out)
	if len(runes) < 2 {
		return out
	}
	if closing, ok := quotePairs[runes[0]]; ok && runes[len(runes)-1] == closing {
		return strings.TrimSpace(string(runes[1 : len(runes)-1]))
	}
	return out
}
