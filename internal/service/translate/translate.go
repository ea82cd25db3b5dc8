package translate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/zhouzirui/health-assistant/backend/internal/model/language"
	"github.com/zhouzirui/health-assistant/backend/pkg/log"
)

var (
	ErrNoProvider  = errors.New("no translation provider configured")
	ErrEmptyText   = errors.New("nothing to translate")
	ErrEmptyOutput = errors.New("translation returned empty result")
)

// Provider performs one translation call against an external service.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text string, source, target language.Code) (string, error)
}

// Result is either a translated text or the reason the translation failed.
type Result struct {
	Text string
	Err  error
}

func Ok(text string) Result {
	return Result{Text: text}
}

func Fail(err error) Result {
	return Result{Err: err}
}

func (r Result) OK() bool {
	return r.Err == nil
}

// OrElse returns the translated text, or original when the translation failed.
func (r Result) OrElse(original string) string {
	if r.Err != nil {
		return original
	}
	return r.Text
}

// Translator wraps a Provider so that every failure becomes a Result instead of an error.
type Translator struct {
	provider Provider
	timeout  time.Duration
}

// New returns a Translator. A nil provider yields a translator whose every call fails.
func New(provider Provider, timeout time.Duration) *Translator {
	return &Translator{provider: provider, timeout: timeout}
}

func (t *Translator) ProviderName() string {
	if t == nil || t.provider == nil {
		return "none"
	}
	return t.provider.Name()
}

// Translate never retries. Identical source and target languages short-circuit.
func (t *Translator) Translate(ctx context.Context, text string, source, target language.Code) (result Result) {
	if source == target {
		return Ok(text)
	}
	if t == nil || t.provider == nil {
		return Fail(ErrNoProvider)
	}
	if strings.TrimSpace(text) == "" {
		return Fail(ErrEmptyText)
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error(log.Fields{"provider": t.provider.Name(), "panic": r}, "[translate] provider panicked")
			result = Fail(errors.New("translation provider panicked"))
		}
	}()

	out, err := t.provider.Translate(ctx, text, source, target)
	if err != nil {
		return Fail(err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return Fail(ErrEmptyOutput)
	}
	return Ok(out)
}
