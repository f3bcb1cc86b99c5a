package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatnslate/internal/domain"
)

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

const profileColumns = `id, username, email, hashed_password, display_name,
	preferred_language, avatar_url, is_active, is_online, created_at, updated_at`

func (r *ProfileRepo) Create(ctx context.Context, p *domain.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, username, email, hashed_password, display_name,
			preferred_language, avatar_url, is_active, is_online, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Username, p.Email, p.HashedPassword, p.DisplayName,
		p.PreferredLanguage, p.AvatarURL, p.IsActive, p.IsOnline, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
}

func (r *ProfileRepo) GetByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE username = $1`, username))
}

func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE email = $1`, email))
}

// Search matches username or display name by case-insensitive substring,
// excluding the given caller.
func (r *ProfileRepo) Search(ctx context.Context, query string, excludeID string, limit int) ([]*domain.Profile, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles
		 WHERE is_active AND id <> $2 AND (username ILIKE $1 OR display_name ILIKE $1)
		 ORDER BY username
		 LIMIT $3`, pattern, excludeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *ProfileRepo) Update(ctx context.Context, p *domain.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles
		 SET display_name = $2, preferred_language = $3, avatar_url = $4, updated_at = $5
		 WHERE id = $1`,
		p.ID, p.DisplayName, p.PreferredLanguage, p.AvatarURL, p.UpdatedAt)
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

func (r *ProfileRepo) SetOnlineStatus(ctx context.Context, id string, online bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET is_online = $2, updated_at = NOW() WHERE id = $1`,
		id, online)
	return err
}

func (r *ProfileRepo) scanOne(row *sql.Row) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.HashedPassword, &p.DisplayName,
		&p.PreferredLanguage, &p.AvatarURL, &p.IsActive, &p.IsOnline, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepo) scanMany(rows *sql.Rows) ([]*domain.Profile, error) {
	var out []*domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.Email, &p.HashedPassword, &p.DisplayName,
			&p.PreferredLanguage, &p.AvatarURL, &p.IsActive, &p.IsOnline, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
