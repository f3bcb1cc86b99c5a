// Package translation implements the translation provider adapter and the
// per-message translation cache manager.
package translation

import (
	"context"

	"chatnslate/internal/language"
)

// Provider abstracts the hosted translation model. Implementations must
// degrade gracefully: callers treat any returned error as non-fatal and fall
// back to the original text or the default language.
type Provider interface {
	// Detect returns the language of text. Results outside the supported
	// set collapse to language.Default.
	Detect(ctx context.Context, text string) (language.Code, error)
	// Translate renders text into target. source may be empty when unknown.
	Translate(ctx context.Context, text string, target, source language.Code) (string, error)
}

// IdentityProvider is the no-credentials fallback: detection always reports
// the default language and translation passes the text through unchanged.
type IdentityProvider struct{}

var _ Provider = IdentityProvider{}

func (IdentityProvider) Detect(context.Context, string) (language.Code, error) {
	return language.Default, nil
}

func (IdentityProvider) Translate(_ context.Context, text string, _, _ language.Code) (string, error) {
	return text, nil
}
