package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"chatnslate/internal/domain"
	"chatnslate/internal/fanout"
)

// ConversationService manages the two-party conversation lifecycle.
type ConversationService struct {
	conversations domain.ConversationRepository
	participants  domain.ParticipantRepository
	messages      domain.MessageRepository
	profiles      domain.ProfileRepository
	broker        *fanout.Broker
	log           zerolog.Logger
}

func NewConversationService(
	conversations domain.ConversationRepository,
	participants domain.ParticipantRepository,
	messages domain.MessageRepository,
	profiles domain.ProfileRepository,
	broker *fanout.Broker,
	log zerolog.Logger,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		participants:  participants,
		messages:      messages,
		profiles:      profiles,
		broker:        broker,
		log:           log,
	}
}

// StartDirect returns the conversation shared by the two users, creating it
// when none exists. Creation inserts the conversation and both participant
// rows in one transaction; the store additionally holds a canonicalized
// unique index on the pair, so a concurrent create surfaces as ErrConflict
// and the caller can re-run the lookup.
func (s *ConversationService) StartDirect(ctx context.Context, creatorID, otherID string) (*domain.Conversation, error) {
	if creatorID == otherID {
		return nil, fmt.Errorf("%w: cannot start a conversation with yourself", domain.ErrInvalidInput)
	}
	if _, err := s.profiles.GetByID(ctx, otherID); err != nil {
		return nil, fmt.Errorf("resolve contact: %w", err)
	}

	existing, err := s.conversations.FindDirect(ctx, creatorID, otherID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find existing conversation: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	conv := &domain.Conversation{CreatedBy: creatorID}
	if err := s.conversations.Create(ctx, conv, []string{creatorID, otherID}); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost the create race: a concurrent request inserted the same
			// pair first. Return the winner's conversation.
			winner, findErr := s.conversations.FindDirect(ctx, creatorID, otherID)
			if findErr != nil && !errors.Is(findErr, domain.ErrNotFound) {
				return nil, fmt.Errorf("find conversation after create race: %w", findErr)
			}
			if winner != nil {
				return winner, nil
			}
		}
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// ListForUser returns the caller's conversations, most recently active first.
func (s *ConversationService) ListForUser(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	return s.conversations.ListForUser(ctx, userID)
}

// Get returns the conversation after verifying the caller participates in it.
func (s *ConversationService) Get(ctx context.Context, conversationID, callerID string) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, domain.ErrNotFound
	}
	isParticipant, err := s.participants.IsParticipant(ctx, conversationID, callerID)
	if err != nil {
		return nil, err
	}
	if !isParticipant {
		return nil, fmt.Errorf("%w: not a participant in this conversation", domain.ErrForbidden)
	}
	return conv, nil
}

// Delete removes the conversation and everything under it. The cascade runs
// messages, then participants, then the conversation row, so a crash
// mid-deletion can orphan an empty conversation but never leaves messages
// pointing at a missing one.
func (s *ConversationService) Delete(ctx context.Context, conversationID, callerID string) error {
	if _, err := s.Get(ctx, conversationID, callerID); err != nil {
		return err
	}

	if err := s.messages.DeleteForConversation(ctx, conversationID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if err := s.participants.DeleteForConversation(ctx, conversationID); err != nil {
		return fmt.Errorf("delete participants: %w", err)
	}
	if err := s.conversations.Delete(ctx, conversationID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}

	if s.broker != nil {
		s.broker.Publish(fanout.Event{
			Type:           fanout.ConversationDeleted,
			ConversationID: conversationID,
		})
	}
	return nil
}
