package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"chatnslate/internal/domain"
	"chatnslate/internal/language"
)

// PlaceholderCounterpartID marks the sentinel profile returned when the
// other participant cannot be resolved yet. Callers may retry later.
const PlaceholderCounterpartID = "pending"

var errCounterpartUnresolved = errors.New("counterpart not resolvable yet")

// counterpartStrategy is one way of finding the other participant. It
// returns nil (with nil error) when it has nothing to offer, letting the
// chain move on.
type counterpartStrategy func(ctx context.Context, conversationID, viewerID string) (*domain.Profile, error)

// ResolveCounterpart finds the other participant of a two-party
// conversation. Participant rows may lag right after creation, so the
// lookup is an ordered chain: participant directory, then any foreign
// message's sender, then the conversation creator; first match wins. When
// every strategy misses, a non-fatal placeholder profile is returned.
func (s *ConversationService) ResolveCounterpart(ctx context.Context, conversationID, viewerID string) (*domain.Profile, error) {
	if _, err := s.Get(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}
	p, err := s.resolveOnce(ctx, conversationID, viewerID)
	if err != nil {
		if errors.Is(err, errCounterpartUnresolved) {
			return placeholderCounterpart(), nil
		}
		return nil, err
	}
	return p, nil
}

// ResolveCounterpartWithRetry re-runs the strategy chain with bounded
// backoff (roughly +2s and +5s after the initial miss) before settling on
// the placeholder, accommodating eventual consistency in the store right
// after conversation creation.
func (s *ConversationService) ResolveCounterpartWithRetry(ctx context.Context, conversationID, viewerID string) (*domain.Profile, error) {
	if _, err := s.Get(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.Multiplier = 2.5
	bo.RandomizationFactor = 0

	var resolved *domain.Profile
	op := func() error {
		p, err := s.resolveOnce(ctx, conversationID, viewerID)
		if err != nil {
			if errors.Is(err, errCounterpartUnresolved) {
				return err
			}
			return backoff.Permanent(err)
		}
		resolved = p
		return nil
	}
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, 2), ctx))
	if err != nil {
		if errors.Is(err, errCounterpartUnresolved) || ctx.Err() != nil {
			return placeholderCounterpart(), nil
		}
		return nil, err
	}
	return resolved, nil
}

func (s *ConversationService) resolveOnce(ctx context.Context, conversationID, viewerID string) (*domain.Profile, error) {
	strategies := []counterpartStrategy{
		s.counterpartFromParticipants,
		s.counterpartFromMessages,
		s.counterpartFromCreator,
	}
	for _, strategy := range strategies {
		p, err := strategy(ctx, conversationID, viewerID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p.PublicView(), nil
		}
	}
	return nil, errCounterpartUnresolved
}

func (s *ConversationService) counterpartFromParticipants(ctx context.Context, conversationID, viewerID string) (*domain.Profile, error) {
	ids, err := s.participants.ListParticipantIDs(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	for _, id := range ids {
		if id == viewerID {
			continue
		}
		p, err := s.profiles.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		return p, nil
	}
	return nil, nil
}

func (s *ConversationService) counterpartFromMessages(ctx context.Context, conversationID, viewerID string) (*domain.Profile, error) {
	senderID, err := s.messages.FindForeignSender(ctx, conversationID, viewerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find foreign sender: %w", err)
	}
	if senderID == "" {
		return nil, nil
	}
	p, err := s.profiles.GetByID(ctx, senderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (s *ConversationService) counterpartFromCreator(ctx context.Context, conversationID, viewerID string) (*domain.Profile, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil || conv == nil {
		return nil, err
	}
	if conv.CreatedBy == viewerID {
		return nil, nil
	}
	p, err := s.profiles.GetByID(ctx, conv.CreatedBy)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func placeholderCounterpart() *domain.Profile {
	return &domain.Profile{
		ID:                PlaceholderCounterpartID,
		DisplayName:       "New Conversation",
		PreferredLanguage: language.Default,
	}
}
