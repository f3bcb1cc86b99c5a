package translation_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"chatnslate/internal/language"
	"chatnslate/internal/translation"
)

func TestNewProviderWithoutKeyIsPassThrough(t *testing.T) {
	p := translation.NewProvider(translation.LLMConfig{}, zerolog.Nop())

	code, err := p.Detect(context.Background(), "bonjour tout le monde")
	assert.NoError(t, err)
	assert.Equal(t, language.Default, code)

	text, err := p.Translate(context.Background(), "bonjour", "en", "fr")
	assert.NoError(t, err)
	assert.Equal(t, "bonjour", text)
}
