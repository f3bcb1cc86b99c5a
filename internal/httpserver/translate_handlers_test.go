package httpserver

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatnslate/internal/language"
)

type captureProvider struct {
	target language.Code
	source language.Code
}

func (p *captureProvider) Detect(context.Context, string) (language.Code, error) {
	return language.Default, nil
}

func (p *captureProvider) Translate(_ context.Context, text string, target, source language.Code) (string, error) {
	p.target = target
	p.source = source
	return "translated:" + text, nil
}

func TestHandleTranslate(t *testing.T) {
	t.Run("OmittedSourceStaysEmpty", func(t *testing.T) {
		provider := &captureProvider{}
		handler := handleTranslate(provider, zerolog.Nop())

		body := `{"action":"translate","text":"hola","target_language":"en"}`
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest("POST", "/api/translate", strings.NewReader(body)))

		require.Equal(t, 200, rec.Code)
		assert.Equal(t, language.Code("en"), provider.target)
		assert.Equal(t, language.Code(""), provider.source)
		assert.Contains(t, rec.Body.String(), "translated:hola")
	})

	t.Run("ExplicitSourceIsNormalized", func(t *testing.T) {
		provider := &captureProvider{}
		handler := handleTranslate(provider, zerolog.Nop())

		body := `{"action":"translate","text":"hola","target_language":"en","source_language":"es-MX"}`
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest("POST", "/api/translate", strings.NewReader(body)))

		require.Equal(t, 200, rec.Code)
		assert.Equal(t, language.Code("es"), provider.source)
	})

	t.Run("MissingTargetIsRejected", func(t *testing.T) {
		handler := handleTranslate(&captureProvider{}, zerolog.Nop())

		body := `{"action":"translate","text":"hola"}`
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest("POST", "/api/translate", strings.NewReader(body)))

		assert.Equal(t, 400, rec.Code)
	})
}
