package translate

import (
	"context"
	"fmt"

	"github.com/zhouzirui/health-assistant/backend/internal/config"
	"github.com/zhouzirui/health-assistant/backend/pkg/gemini"
)

// NewFromConfig builds the Translator selected by cfg.Translation. With the auto
// provider Ark is preferred, then Gemini, then no provider at all (identity fallback).
func NewFromConfig(ctx context.Context, cfg *config.Config, geminiClient gemini.IGemini) (*Translator, error) {
	provider, err := selectProvider(ctx, cfg, geminiClient)
	if err != nil {
		return nil, err
	}
	return New(provider, cfg.Translation.Timeout), nil
}

func selectProvider(ctx context.Context, cfg *config.Config, geminiClient gemini.IGemini) (Provider, error) {
	switch cfg.Translation.Provider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderArk:
		return newArk(ctx, cfg.AI)
	case config.ProviderGemini:
		if geminiClient == nil {
			return nil, fmt.Errorf("TRANSLATE_PROVIDER=gemini requires GEMINI_API_KEY")
		}
		return NewGeminiProvider(geminiClient), nil
	default:
		if cfg.AI.Enabled() {
			return newArk(ctx, cfg.AI)
		}
		if geminiClient != nil {
			return NewGeminiProvider(geminiClient), nil
		}
		return nil, nil
	}
}

func newArk(ctx context.Context, ai config.AIConfig) (Provider, error) {
	chatModel, err := ai.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewArkProvider(ctx, chatModel)
}
