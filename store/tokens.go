package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/giygas/slim-api/entities"
)

// SaveRefreshToken stores a refresh token hash.
func (s *SQLiteStore) SaveRefreshToken(ctx context.Context, t *entities.RefreshToken) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token_hash, id, user_id, expires_at, created_at, revoked) VALUES (?, ?, ?, ?, ?, ?)`,
		t.TokenHash, t.ID, t.UserID, t.ExpiresAt.Unix(), t.CreatedAt.Unix(), t.Revoked)
	if err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken looks a token up by hash. Revoked and expired tokens are
// returned too; callers decide.
func (s *SQLiteStore) GetRefreshToken(ctx context.Context, tokenHash string) (*entities.RefreshToken, error) {
	var (
		t                  entities.RefreshToken
		expires, createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT token_hash, id, user_id, expires_at, created_at, revoked FROM refresh_tokens WHERE token_hash = ?`,
		tokenHash).Scan(&t.TokenHash, &t.ID, &t.UserID, &expires, &createdAt, &t.Revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.ExpiresAt = time.Unix(expires, 0).UTC()
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &t, nil
}

// RevokeRefreshToken marks a live token as revoked. ErrNotFound means the
// token is unknown or was already revoked, so at most one caller wins.
func (s *SQLiteStore) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked = 1 WHERE token_hash = ? AND revoked = 0", tokenHash)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// RevokeUserTokens revokes every token of a user.
func (s *SQLiteStore) RevokeUserTokens(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE refresh_tokens SET revoked = 1 WHERE user_id = ?", userID)
	return err
}

// PurgeExpiredTokens deletes expired and revoked tokens.
func (s *SQLiteStore) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at <= ? OR revoked = 1", now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
