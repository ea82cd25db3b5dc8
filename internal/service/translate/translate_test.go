package translate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/health-assistant/backend/internal/config"
	"github.com/zhouzirui/health-assistant/backend/internal/model/language"
)

type fakeProvider struct {
	out   string
	err   error
	panic bool
	wait  bool
	calls int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Translate(ctx context.Context, text string, source, target language.Code) (string, error) {
	f.calls++
	if f.panic {
		panic("boom")
	}
	if f.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.out, f.err
}

func TestTranslateSuccess(t *testing.T) {
	provider := &fakeProvider{out: "  मुझे बुखार है  "}
	tr := New(provider, time.Second)

	res := tr.Translate(context.Background(), "I have a fever", language.English, language.Hindi)
	if !res.OK() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Text != "मुझे बुखार है" {
		t.Fatalf("unexpected text %q", res.Text)
	}
}

func TestTranslateFailureFallsBackToOriginal(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		text     string
	}{
		{"provider error", &fakeProvider{err: errors.New("quota exceeded")}, "मुझे बुखार है"},
		{"empty output", &fakeProvider{out: "   "}, "मुझे बुखार है"},
		{"provider panic", &fakeProvider{panic: true}, "मुझे बुखार है"},
		{"empty input", &fakeProvider{out: "unused"}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := New(tc.provider, time.Second)

			res := tr.Translate(context.Background(), tc.text, language.Hindi, language.English)
			if res.OK() {
				t.Fatal("expected failed result")
			}
			if got := res.OrElse(tc.text); got != tc.text {
				t.Fatalf("expected identity fallback, got %q", got)
			}
		})
	}
}

func TestTranslateRoundTripWithFailingProvider(t *testing.T) {
	tr := New(&fakeProvider{err: errors.New("network down")}, 0)
	original := "నాకు జ్వరం ఉంది"

	toEnglish := tr.Translate(context.Background(), original, language.Telugu, language.English).OrElse(original)
	back := tr.Translate(context.Background(), toEnglish, language.English, language.Telugu).OrElse(toEnglish)

	if back != original {
		t.Fatalf("expected %q, got %q", original, back)
	}
}

func TestTranslateTimeout(t *testing.T) {
	tr := New(&fakeProvider{wait: true}, 10*time.Millisecond)

	res := tr.Translate(context.Background(), "hello", language.English, language.Hindi)
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", res.Err)
	}
}

func TestTranslateSameLanguageSkipsProvider(t *testing.T) {
	provider := &fakeProvider{out: "changed"}
	tr := New(provider, 0)

	res := tr.Translate(context.Background(), "fever", language.English, language.English)
	if res.Text != "fever" || provider.calls != 0 {
		t.Fatalf("expected passthrough without provider call, got %+v calls=%d", res, provider.calls)
	}
}

func TestTranslateWithoutProvider(t *testing.T) {
	tr := New(nil, 0)

	res := tr.Translate(context.Background(), "fever", language.English, language.Hindi)
	if !errors.Is(res.Err, ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", res.Err)
	}
	if tr.ProviderName() != "none" {
		t.Fatalf("unexpected provider name %q", tr.ProviderName())
	}
}

func TestCleanOutput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"rest"`, "rest"},
		{"  'rest'  ", "rest"},
		{"“I have a fever”", "I have a fever"},
		{`He said "rest"`, `He said "rest"`},
		{`"rest" is advised`, `"rest" is advised`},
		{`"rest'`, `"rest'`},
		{`""rest""`, `"rest"`},
		{`"`, `"`},
		{"plain", "plain"},
	}

	for _, tc := range tests {
		if got := cleanOutput(tc.in); got != tc.want {
			t.Fatalf("cleanOutput(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

type fakeChatModel struct {
	reply    string
	received []*schema.Message
}

func (m *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.received = input
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.received = input
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(m.reply, nil)}), nil
}

func TestArkProviderRunsChain(t *testing.T) {
	chatModel := &fakeChatModel{reply: "\"• आराम<br>• पानी\""}
	provider, err := NewArkProvider(context.Background(), chatModel)
	if err != nil {
		t.Fatalf("NewArkProvider err: %v", err)
	}

	out, err := provider.Translate(context.Background(), "• rest<br>• water", language.English, language.Hindi)
	if err != nil {
		t.Fatalf("Translate err: %v", err)
	}
	if out != "• आराम<br>• पानी" {
		t.Fatalf("unexpected output %q", out)
	}

	if len(chatModel.received) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(chatModel.received))
	}
	if !strings.Contains(chatModel.received[0].Content, "from English to Hindi") {
		t.Fatalf("system prompt missing direction: %q", chatModel.received[0].Content)
	}
	if chatModel.received[1].Content != "• rest<br>• water" {
		t.Fatalf("unexpected user message %q", chatModel.received[1].Content)
	}
}

func TestNewArkProviderRequiresModel(t *testing.T) {
	if _, err := NewArkProvider(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil model")
	}
}

type fakeGemini struct {
	prompt string
	out    string
	err    error
}

func (g *fakeGemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.out, g.err
}

func (g *fakeGemini) DescribeImage(ctx context.Context, mimeType string, data []byte, prompt string) (string, error) {
	return "", errors.New("not used")
}

func (g *fakeGemini) Close() error { return nil }

func TestGeminiProvider(t *testing.T) {
	client := &fakeGemini{out: "“I have a fever”"}
	provider := NewGeminiProvider(client)

	out, err := provider.Translate(context.Background(), "मुझे बुखार है", language.Hindi, language.English)
	if err != nil {
		t.Fatalf("Translate err: %v", err)
	}
	if out != "I have a fever" {
		t.Fatalf("unexpected output %q", out)
	}
	if !strings.Contains(client.prompt, "from Hindi to English") || !strings.HasSuffix(client.prompt, "मुझे बुखार है") {
		t.Fatalf("unexpected prompt %q", client.prompt)
	}

	client.err = errors.New("quota")
	if _, err := provider.Translate(context.Background(), "x", language.Hindi, language.English); err == nil {
		t.Fatal("expected provider error")
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{Translation: config.TranslationConfig{Provider: config.ProviderAuto, Timeout: time.Second}}

	tr, err := NewFromConfig(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig err: %v", err)
	}
	if tr.ProviderName() != "none" {
		t.Fatalf("expected no provider without credentials, got %q", tr.ProviderName())
	}

	tr, err = NewFromConfig(context.Background(), cfg, &fakeGemini{})
	if err != nil {
		t.Fatalf("NewFromConfig err: %v", err)
	}
	if tr.ProviderName() != "gemini" {
		t.Fatalf("expected gemini fallback provider, got %q", tr.ProviderName())
	}

	cfg.Translation.Provider = config.ProviderGemini
	if _, err := NewFromConfig(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error when gemini is selected without a client")
	}

	cfg.Translation.Provider = config.ProviderArk
	if _, err := NewFromConfig(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error when ark is selected without credentials")
	}
}
