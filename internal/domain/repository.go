package domain

import (
	"context"

	"chatnslate/internal/language"
)

// ProfileRepository defines persistence operations for user profiles.
type ProfileRepository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetByUsername(ctx context.Context, username string) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	Search(ctx context.Context, displayName string, excludeID string, limit int) ([]*Profile, error)
	Update(ctx context.Context, p *Profile) error
	SetOnlineStatus(ctx context.Context, id string, isOnline bool) error
}

// ConversationRepository defines persistence operations for conversations.
type ConversationRepository interface {
	// Create inserts the conversation and both participant rows in a single
	// transaction.
	Create(ctx context.Context, c *Conversation, participantIDs []string) error
	GetByID(ctx context.Context, id string) (*Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]*Conversation, error)
	// FindDirect returns the existing conversation between the two users, or
	// nil when none exists.
	FindDirect(ctx context.Context, userA, userB string) (*Conversation, error)
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// ParticipantRepository defines operations around conversation participants.
type ParticipantRepository interface {
	ListParticipants(ctx context.Context, conversationID string) ([]*Profile, error)
	ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error)
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	DeleteForConversation(ctx context.Context, conversationID string) error
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	ListForConversation(ctx context.Context, conversationID string, limit int) ([]*Message, error)
	// FindForeignSender returns the sender ID of any message in the
	// conversation not sent by excludeUserID, or "" when none exists.
	FindForeignSender(ctx context.Context, conversationID, excludeUserID string) (string, error)
	// SaveTranslation merges one (language, text) pair into the message's
	// translation map. Re-saving the same pair is a no-op overwrite.
	SaveTranslation(ctx context.Context, messageID string, target language.Code, text string) error
	Delete(ctx context.Context, id string) error
	DeleteForConversation(ctx context.Context, conversationID string) error
}

// ContactRepository defines persistence operations for address-book edges.
type ContactRepository interface {
	Create(ctx context.Context, c *Contact) error
	ListForUser(ctx context.Context, userID string) ([]*Profile, error)
	Exists(ctx context.Context, userID, contactUserID string) (bool, error)
}
