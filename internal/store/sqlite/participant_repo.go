package sqlite

import (
	"context"
	"database/sql"

	"chatnslate/internal/domain"
)

type ParticipantRepo struct {
	db *sql.DB
}

func NewParticipantRepo(db *sql.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

func (r *ParticipantRepo) ListParticipants(ctx context.Context, conversationID string) ([]*domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.username, p.email, p.hashed_password, p.display_name,
			p.preferred_language, p.avatar_url, p.is_active, p.is_online,
			p.created_at, p.updated_at
		 FROM conversation_participants cp
		 JOIN profiles p ON p.id = cp.user_id
		 WHERE cp.conversation_id = ?
		 ORDER BY cp.joined_at`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.Email, &p.HashedPassword, &p.DisplayName,
			&p.PreferredLanguage, &p.AvatarURL, &p.IsActive, &p.IsOnline,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *ParticipantRepo) ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM conversation_participants WHERE conversation_id = ?`,
		conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *ParticipantRepo) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM conversation_participants
		 WHERE conversation_id = ? AND user_id = ?`, conversationID, userID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ParticipantRepo) DeleteForConversation(ctx context.Context, conversationID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM conversation_participants WHERE conversation_id = ?`, conversationID)
	return err
}
