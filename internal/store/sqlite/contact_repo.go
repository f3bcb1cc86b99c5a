package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"chatnslate/internal/domain"
)

type ContactRepo struct {
	db *sql.DB
}

func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{db: db}
}

func (r *ContactRepo) Create(ctx context.Context, c *domain.Contact) error {
	c.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (user_id, contact_user_id, created_at)
		 VALUES (?, ?, ?)`,
		c.UserID, c.ContactUserID, c.CreatedAt)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.ErrConflict
	}
	return err
}

// ListForUser returns the profiles behind the user's contacts, newest first.
func (r *ContactRepo) ListForUser(ctx context.Context, userID string) ([]*domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.username, p.email, p.hashed_password, p.display_name,
			p.preferred_language, p.avatar_url, p.is_active, p.is_online,
			p.created_at, p.updated_at
		 FROM contacts c
		 JOIN profiles p ON p.id = c.contact_user_id
		 WHERE c.user_id = ?
		 ORDER BY c.created_at DESC`, userID)
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

func (r *ContactRepo) Exists(ctx context.Context, userID, contactUserID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM contacts WHERE user_id = ? AND contact_user_id = ?`,
		userID, contactUserID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
