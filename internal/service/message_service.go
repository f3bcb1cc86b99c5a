package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"chatnslate/internal/domain"
	"chatnslate/internal/fanout"
	"chatnslate/internal/language"
	"chatnslate/internal/translation"
)

const maxMessageRunes = 5000

// MessageService implements the send, list, delete, and translation-save
// paths for messages.
type MessageService struct {
	conversations domain.ConversationRepository
	participants  domain.ParticipantRepository
	messages      domain.MessageRepository
	profiles      domain.ProfileRepository
	detector      translation.Provider
	translations  *translation.CacheManager
	broker        *fanout.Broker
	log           zerolog.Logger
}

func NewMessageService(
	conversations domain.ConversationRepository,
	participants domain.ParticipantRepository,
	messages domain.MessageRepository,
	profiles domain.ProfileRepository,
	detector translation.Provider,
	translations *translation.CacheManager,
	broker *fanout.Broker,
	log zerolog.Logger,
) *MessageService {
	return &MessageService{
		conversations: conversations,
		participants:  participants,
		messages:      messages,
		profiles:      profiles,
		detector:      detector,
		translations:  translations,
		broker:        broker,
		log:           log,
	}
}

// MessageView is a message enriched with its sender profile, the shape
// clients render directly.
type MessageView struct {
	*domain.Message
	Sender *domain.Profile `json:"sender,omitempty"`
}

// Send appends a message to the conversation and publishes the insert event.
// The returned view carries the sender profile so the sender's client can
// display it immediately, independent of fan-out delivery.
func (s *MessageService) Send(ctx context.Context, conversationID, senderID, text string) (*MessageView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text cannot be empty", domain.ErrInvalidInput)
	}
	if len([]rune(text)) > maxMessageRunes {
		return nil, fmt.Errorf("%w: message text exceeds %d characters", domain.ErrInvalidInput, maxMessageRunes)
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, domain.ErrNotFound
	}
	isParticipant, err := s.participants.IsParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, fmt.Errorf("check participant: %w", err)
	}
	if !isParticipant {
		return nil, fmt.Errorf("%w: not a participant in this conversation", domain.ErrForbidden)
	}

	// Detection failure is non-fatal; the message still goes out tagged en.
	lang, err := s.detector.Detect(ctx, text)
	if err != nil {
		s.log.Warn().Err(err).Msg("language detection failed, defaulting")
		lang = language.Default
	}

	msg := &domain.Message{
		ConversationID:   conversationID,
		SenderID:         senderID,
		OriginalText:     text,
		OriginalLanguage: lang,
		TranslatedTexts:  map[language.Code]string{},
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	if err := s.conversations.Touch(ctx, conversationID); err != nil {
		s.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("bump conversation activity")
	}

	s.publish(fanout.Event{
		Type:           fanout.MessageInserted,
		ConversationID: conversationID,
		MessageID:      msg.ID,
		SenderID:       senderID,
	})

	view := &MessageView{Message: msg}
	if sender, err := s.profiles.GetByID(ctx, senderID); err == nil {
		view.Sender = sender.PublicView()
	}
	return view, nil
}

// Delete removes a message. Only the sender may delete; the row is removed
// physically and a removal event is fanned out.
func (s *MessageService) Delete(ctx context.Context, messageID, callerID string) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get message: %w", err)
	}
	if msg.SenderID != callerID {
		return fmt.Errorf("%w: you can only delete your own messages", domain.ErrForbidden)
	}
	if err := s.messages.Delete(ctx, messageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	s.publish(fanout.Event{
		Type:           fanout.MessageDeleted,
		ConversationID: msg.ConversationID,
		MessageID:      messageID,
		SenderID:       msg.SenderID,
	})
	return nil
}

// List returns the conversation's messages in chronological order, each
// foreign message carrying a translation for the viewer's preferred language
// when one can be computed.
func (s *MessageService) List(ctx context.Context, conversationID, viewerID string, limit int) ([]*MessageView, error) {
	isParticipant, err := s.participants.IsParticipant(ctx, conversationID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("check participant: %w", err)
	}
	if !isParticipant {
		return nil, fmt.Errorf("%w: not a participant in this conversation", domain.ErrForbidden)
	}

	viewer, err := s.profiles.GetByID(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("get viewer profile: %w", err)
	}

	msgs, err := s.messages.ListForConversation(ctx, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	senders := make(map[string]*domain.Profile)
	views := make([]*MessageView, 0, len(msgs))
	for _, m := range msgs {
		if m.SenderID != viewerID && viewer.PreferredLanguage != "" {
			s.translations.EnsureTranslation(ctx, m, viewer.PreferredLanguage)
		}
		sender, ok := senders[m.SenderID]
		if !ok {
			if p, err := s.profiles.GetByID(ctx, m.SenderID); err == nil {
				sender = p.PublicView()
			}
			senders[m.SenderID] = sender
		}
		views = append(views, &MessageView{Message: m, Sender: sender})
	}
	return views, nil
}

// SaveTranslation merges a client-computed (language, text) pair into the
// message's translation map. Re-posting the same pair is a no-op overwrite;
// the sender's own original language is never cached.
func (s *MessageService) SaveTranslation(ctx context.Context, messageID string, target language.Code, text string) error {
	if !language.IsSupported(target) {
		return fmt.Errorf("%w: unsupported language %q", domain.ErrInvalidInput, target)
	}
	if text == "" {
		return fmt.Errorf("%w: translated text cannot be empty", domain.ErrInvalidInput)
	}
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get message: %w", err)
	}
	if target == msg.OriginalLanguage {
		return nil
	}
	return s.messages.SaveTranslation(ctx, messageID, target, text)
}

func (s *MessageService) publish(ev fanout.Event) {
	if s.broker != nil {
		s.broker.Publish(ev)
	}
}
