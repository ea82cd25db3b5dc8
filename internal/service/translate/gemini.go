package translate

import (
	"context"
	"fmt"

	"github.com/zhouzirui/health-assistant/backend/internal/model/language"
	"github.com/zhouzirui/health-assistant/backend/pkg/gemini"
)

// GeminiProvider translates with a Gemini text model.
type GeminiProvider struct {
	client gemini.IGemini
}

func NewGeminiProvider(client gemini.IGemini) *GeminiProvider {
	return &GeminiProvider{client: client}
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) Translate(ctx context.Context, text string, source, target language.Code) (string, error) {
	out, err := p.client.GenerateText(ctx, BuildSinglePrompt(text, source, target))
	if err != nil {
		return "", fmt.Errorf("gemini translate %s->%s: %w", source, target, err)
	}
	return cleanOutput(out), nil
}
