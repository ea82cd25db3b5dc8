package vision

import (
	"fmt"

	"github.com/zhouzirui/health-assistant/backend/internal/config"
	"github.com/zhouzirui/health-assistant/backend/pkg/gemini"
)

// NewFromConfig returns the classifier named by cfg.Vision.Provider.
func NewFromConfig(cfg *config.Config, geminiClient gemini.IGemini) (Classifier, error) {
	switch cfg.Vision.Provider {
	case config.ProviderGemini:
		if geminiClient == nil {
			return nil, fmt.Errorf("CLASSIFIER_PROVIDER=gemini requires GEMINI_API_KEY")
		}
		return NewGemini(geminiClient), nil
	default:
		return Stub{}, nil
	}
}
