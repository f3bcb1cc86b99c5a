package translation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"chatnslate/internal/cache"
	"chatnslate/internal/domain"
	"chatnslate/internal/language"
)

// TranslationSaver is the slice of the message repository the cache manager
// needs for write-back.
type TranslationSaver interface {
	SaveTranslation(ctx context.Context, messageID string, target language.Code, text string) error
}

// CacheManager enforces compute-once-reuse per (message, target language).
// Concurrent calls for the same pair may both reach the provider; the cache
// key is overwritten with equivalent content, so the only cost is a duplicate
// provider call.
type CacheManager struct {
	provider Provider
	saver    TranslationSaver
	hot      cache.Cache // optional fast layer, may be nil
	hotTTL   time.Duration
	log      zerolog.Logger

	persistTimeout time.Duration
}

func NewCacheManager(provider Provider, saver TranslationSaver, hot cache.Cache, hotTTL time.Duration, log zerolog.Logger) *CacheManager {
	return &CacheManager{
		provider:       provider,
		saver:          saver,
		hot:            hot,
		hotTTL:         hotTTL,
		log:            log,
		persistTimeout: 10 * time.Second,
	}
}

// EnsureTranslation returns msg's text in target, computing and caching a
// translation when one is missing. Provider failures degrade to the original
// text and are never cached, so a later call can retry.
//
// On a provider success the result is written into msg.TranslatedTexts in
// place and persisted on a detached goroutine; persistence failure does not
// fail the read path.
func (c *CacheManager) EnsureTranslation(ctx context.Context, msg *domain.Message, target language.Code) string {
	if msg.OriginalText == "" {
		return ""
	}
	if !language.IsSupported(target) || target == msg.OriginalLanguage {
		return msg.OriginalText
	}
	if t, ok := msg.TranslationFor(target); ok {
		return t
	}
	if t, ok := c.hotLookup(ctx, msg.ID, target); ok {
		c.apply(msg, target, t)
		return t
	}

	translated, err := c.provider.Translate(ctx, msg.OriginalText, target, msg.OriginalLanguage)
	if err != nil || translated == "" {
		c.log.Warn().Err(err).
			Str("message_id", msg.ID).
			Str("target", string(target)).
			Msg("translation failed, falling back to original text")
		return msg.OriginalText
	}

	c.apply(msg, target, translated)
	c.hotStore(ctx, msg.ID, target, translated)
	c.persistAsync(msg.ID, target, translated)
	return translated
}

func (c *CacheManager) apply(msg *domain.Message, target language.Code, text string) {
	if msg.TranslatedTexts == nil {
		msg.TranslatedTexts = make(map[language.Code]string, 1)
	}
	msg.TranslatedTexts[target] = text
}

// persistAsync writes the translation back to the store without gating the
// caller. The context is detached so an unmounting client cannot cancel the
// write mid-flight.
func (c *CacheManager) persistAsync(messageID string, target language.Code, text string) {
	if c.saver == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.persistTimeout)
		defer cancel()
		if err := c.saver.SaveTranslation(ctx, messageID, target, text); err != nil {
			c.log.Warn().Err(err).
				Str("message_id", messageID).
				Str("target", string(target)).
				Msg("failed to persist translation")
		}
	}()
}

func (c *CacheManager) hotLookup(ctx context.Context, messageID string, target language.Code) (string, bool) {
	if c.hot == nil {
		return "", false
	}
	v, err := c.hot.Get(ctx, hotKey(messageID, target))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.log.Debug().Err(err).Msg("hot cache lookup failed")
		}
		return "", false
	}
	return v, v != ""
}

func (c *CacheManager) hotStore(ctx context.Context, messageID string, target language.Code, text string) {
	if c.hot == nil {
		return
	}
	if err := c.hot.Set(ctx, hotKey(messageID, target), text, c.hotTTL); err != nil {
		c.log.Debug().Err(err).Msg("hot cache store failed")
	}
}

func hotKey(messageID string, target language.Code) string {
	return fmt.Sprintf("translation:%s:%s", messageID, target)
}
