package translate

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/health-assistant/backend/internal/model/language"
)

// ArkProvider translates through an eino chain of a chat template and a chat model.
type ArkProvider struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewArkProvider compiles the translation chain around chatModel.
func NewArkProvider(ctx context.Context, chatModel model.BaseChatModel) (*ArkProvider, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{text}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile translation chain: %w", err)
	}

	return &ArkProvider{chain: runnable}, nil
}

func (p *ArkProvider) Name() string {
	return "ark"
}

func (p *ArkProvider) Translate(ctx context.Context, text string, source, target language.Code) (string, error) {
	msg, err := p.chain.Invoke(ctx, map[string]any{
		"system": BuildSystemPrompt(source, target),
		"text":   text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run translation chain: %w", err)
	}
	if msg == nil {
		return "", ErrEmptyOutput
	}
	return cleanOutput(msg.Content), nil
}
