package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"chatnslate/internal/domain"
	"chatnslate/internal/language"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now().UTC()
	if m.TranslatedTexts == nil {
		m.TranslatedTexts = map[language.Code]string{}
	}
	translations, err := json.Marshal(m.TranslatedTexts)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, original_text,
			original_language, translated_texts, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.SenderID, m.OriginalText,
		m.OriginalLanguage, string(translations), m.CreatedAt)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	var m domain.Message
	var translations string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, conversation_id, sender_id, original_text, original_language,
			translated_texts, created_at
		 FROM messages WHERE id = ?`, id).
		Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.OriginalText,
			&m.OriginalLanguage, &translations, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(translations), &m.TranslatedTexts); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepo) ListForConversation(ctx context.Context, conversationID string, limit int) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, sender_id, original_text, original_language,
			translated_texts, created_at
		 FROM messages
		 WHERE conversation_id = ?
		 ORDER BY created_at
		 LIMIT ?`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		var m domain.Message
		var translations string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.OriginalText,
			&m.OriginalLanguage, &translations, &m.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(translations), &m.TranslatedTexts); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *MessageRepo) FindForeignSender(ctx context.Context, conversationID, userID string) (string, error) {
	var senderID string
	err := r.db.QueryRowContext(ctx,
		`SELECT sender_id FROM messages
		 WHERE conversation_id = ? AND sender_id <> ?
		 ORDER BY created_at DESC
		 LIMIT 1`, conversationID, userID).Scan(&senderID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return senderID, nil
}

func (r *MessageRepo) SaveTranslation(ctx context.Context, messageID string, lang language.Code, text string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages
		 SET translated_texts = json_patch(translated_texts, json_object(?, ?))
		 WHERE id = ?`, string(lang), text, messageID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *MessageRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *MessageRepo) DeleteForConversation(ctx context.Context, conversationID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM messages WHERE conversation_id = ?`, conversationID)
	return err
}
