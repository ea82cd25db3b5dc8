package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var ErrEmptyResponse = errors.New("no response from Gemini API")

// IGemini is the subset of Gemini used by the translator and the image classifier.
type IGemini interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	DescribeImage(ctx context.Context, mimeType string, data []byte, prompt string) (string, error)
	Close() error
}

type Config struct {
	APIKey      string
	TextModel   string
	VisionModel string
}

type geminiClient struct {
	textModel   string
	visionModel string
	client      *genai.Client
}

func NewGeminiClient(ctx context.Context, cfg Config) (IGemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	if cfg.TextModel == "" {
		cfg.TextModel = "gemini-1.5-flash"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.TextModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, err
	}

	return &geminiClient{
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
		client:      client,
	}, nil
}

func (g *geminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.textModel)
	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return extractText(res)
}

func (g *geminiClient) DescribeImage(ctx context.Context, mimeType string, data []byte, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.visionModel)

	format := strings.TrimPrefix(mimeType, "image/")
	if format == "" || format == mimeType {
		format = "jpeg"
	}

	res, err := model.GenerateContent(ctx, genai.Text(prompt), genai.ImageData(format, data))
	if err != nil {
		return "", err
	}
	return extractText(res)
}

func (g *geminiClient) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func extractText(res *genai.GenerateContentResponse) (string, error) {
	if res == nil {
		return "", ErrEmptyResponse
	}

	var builder strings.Builder
	for _, cand := range res.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				builder.WriteString(string(text))
			}
		}
		if builder.Len() > 0 {
			break
		}
	}

	out := strings.TrimSpace(builder.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
