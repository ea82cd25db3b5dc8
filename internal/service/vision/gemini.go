package vision

import (
	"context"
	"strings"

	"github.com/zhouzirui/health-assistant/backend/pkg/gemini"
)

const classifyPrompt = `You are assisting a symptom checker. Look at the photo and name the single most likely
everyday health condition it shows (for example: fever, rash, cold, burn, cough).
Answer with one lowercase word and nothing else.`

// Gemini classifies images with a Gemini vision model.
type Gemini struct {
	client gemini.IGemini
}

func NewGemini(client gemini.IGemini) *Gemini {
	return &Gemini{client: client}
}

func (g *Gemini) Classify(ctx context.Context, img Image) (string, error) {
	out, err := g.client.DescribeImage(ctx, img.ContentType, img.Data, classifyPrompt)
	if err != nil {
		return "", err
	}
	return normalizeLabel(out), nil
}

// normalizeLabel keeps the first line of the answer, lowercased and without punctuation around it.
func normalizeLabel(raw string) string {
	line := strings.TrimSpace(raw)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	return strings.Trim(strings.ToLower(strings.TrimSpace(line)), ".,!\"'`*")
}
