package translation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"chatnslate/internal/language"
)

// LLMProvider translates through an OpenAI-compatible chat-completion
// endpoint. A circuit breaker keeps a misbehaving provider from being
// hammered; callers already treat errors as a cue to fall back, so a tripped
// breaker simply fails fast.
type LLMProvider struct {
	client  *openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// LLMConfig carries provider connection settings.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewProvider returns an LLM-backed provider, or the identity fallback when
// no API key is configured.
func NewProvider(cfg LLMConfig, log zerolog.Logger) Provider {
	if cfg.APIKey == "" {
		log.Warn().Msg("no translator API key configured, using pass-through translation")
		return IdentityProvider{}
	}
	return NewLLMProvider(cfg, log)
}

func NewLLMProvider(cfg LLMConfig, log zerolog.Logger) *LLMProvider {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "translator",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &LLMProvider{
		client:  openai.NewClientWithConfig(oc),
		model:   cfg.Model,
		breaker: breaker,
		log:     log,
	}
}

var _ Provider = (*LLMProvider)(nil)

func (p *LLMProvider) Detect(ctx context.Context, text string) (language.Code, error) {
	prompt := fmt.Sprintf(
		"Detect the language of the following text and return only the language code from this list: %s. Only return the 2-letter code, nothing else:\n\n%s",
		languageList(), text,
	)
	out, err := p.complete(ctx, prompt)
	if err != nil {
		return language.Default, err
	}
	code := language.Code(strings.ToLower(strings.TrimSpace(out)))
	if !language.IsSupported(code) {
		p.log.Debug().Str("raw", out).Msg("detector returned unsupported code, defaulting")
		return language.Default, nil
	}
	return code, nil
}

func (p *LLMProvider) Translate(ctx context.Context, text string, target, source language.Code) (string, error) {
	var prompt string
	if source != "" {
		prompt = fmt.Sprintf(
			"Translate the following text from %s to %s. Only return the translated text, no explanations or additional content:\n\n%s",
			language.Name(source), language.Name(target), text,
		)
	} else {
		prompt = fmt.Sprintf(
			"Translate the following text to %s. Only return the translated text, no explanations or additional content:\n\n%s",
			language.Name(target), text,
		)
	}
	out, err := p.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (p *LLMProvider) complete(ctx context.Context, prompt string) (string, error) {
	res, err := p.breaker.Execute(func() (any, error) {
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("translator: empty completion")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", fmt.Errorf("translator: %w", err)
	}
	return res.(string), nil
}

// languageList renders "en: English, es: Spanish, ..." in stable order for
// the detection prompt.
func languageList() string {
	codes := make([]string, 0, len(language.Supported))
	for c := range language.Supported {
		codes = append(codes, string(c))
	}
	sort.Strings(codes)
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = fmt.Sprintf("%s: %s", c, language.Supported[language.Code(c)])
	}
	return strings.Join(parts, ", ")
}
