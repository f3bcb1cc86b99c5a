package domain

import (
	"time"

	"chatnslate/internal/language"
)

// Profile is an application user together with their chat identity.
type Profile struct {
	ID                string        `db:"id" json:"id"`
	Username          string        `db:"username" json:"username"`
	Email             *string       `db:"email" json:"email,omitempty"`
	HashedPassword    string        `db:"hashed_password" json:"-"`
	DisplayName       string        `db:"display_name" json:"display_name"`
	PreferredLanguage language.Code `db:"preferred_language" json:"preferred_language"`
	AvatarURL         *string       `db:"avatar_url" json:"avatar_url,omitempty"`
	IsActive          bool          `db:"is_active" json:"is_active"`
	IsOnline          bool          `db:"is_online" json:"is_online"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
}

// PublicView strips a profile down to what other users may see.
func (p *Profile) PublicView() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.HashedPassword = ""
	cp.Email = nil
	return &cp
}

// Conversation is a two-party chat. The participant set is fixed at
// creation; only UpdatedAt changes afterwards, bumped on activity.
type Conversation struct {
	ID        string    `db:"id" json:"id"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Participant binds a user to a conversation. Exactly two rows exist per
// conversation, by construction.
type Participant struct {
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	UserID         string    `db:"user_id" json:"user_id"`
	JoinedAt       time.Time `db:"joined_at" json:"joined_at"`
}

// Message is a single chat message. It is immutable except for monotonic
// growth of TranslatedTexts: a language key, once populated, is not
// recomputed, and the key for OriginalLanguage is never populated.
type Message struct {
	ID               string                   `db:"id" json:"id"`
	ConversationID   string                   `db:"conversation_id" json:"conversation_id"`
	SenderID         string                   `db:"sender_id" json:"sender_id"`
	OriginalText     string                   `db:"original_text" json:"original_text"`
	OriginalLanguage language.Code            `db:"original_language" json:"original_language"`
	TranslatedTexts  map[language.Code]string `db:"translated_texts" json:"translated_texts"`
	CreatedAt        time.Time                `db:"created_at" json:"created_at"`
}

// TranslationFor returns the cached translation for target, if one exists
// and actually differs from the original text.
func (m *Message) TranslationFor(target language.Code) (string, bool) {
	t, ok := m.TranslatedTexts[target]
	if !ok || t == "" || t == m.OriginalText {
		return "", false
	}
	return t, true
}

// Contact is a directed address-book edge, independent of any conversation.
type Contact struct {
	UserID        string    `db:"user_id" json:"user_id"`
	ContactUserID string    `db:"contact_user_id" json:"contact_user_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
