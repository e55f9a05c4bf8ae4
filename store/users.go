package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/giygas/slim-api/entities"
)

const userColumns = "doc, password_hash"

func scanUser(row *sql.Row) (*entities.User, error) {
	var doc, hash string
	if err := row.Scan(&doc, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var u entities.User
	if err := decode(doc, &u); err != nil {
		return nil, err
	}
	u.PasswordHash = hash
	return &u, nil
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser inserts u, assigning an id and timestamps when missing.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *entities.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = NormalizeEmail(u.Email)
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	doc, err := encode(u)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, is_admin, created_at, doc) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.IsAdmin, formatTime(u.CreatedAt), doc)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser returns the user with id.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*entities.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

// GetUserByEmail looks a user up by email, ignoring case.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", NormalizeEmail(email)))
}

// ListUsers returns every user, oldest first. Password hashes are not loaded.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]entities.User, error) {
	return listDocs[entities.User](ctx, s.db, "SELECT doc FROM users ORDER BY created_at, id")
}

// UpdateUser applies fn to the stored user inside a transaction.
// Returning an error from fn aborts the update.
func (s *SQLiteStore) UpdateUser(ctx context.Context, id string, fn func(*entities.User) error) (*entities.User, error) {
	var updated *entities.User
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		u, err := updateUserTx(ctx, tx, id, fn)
		updated = u
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func updateUserTx(ctx context.Context, tx *sql.Tx, id string, fn func(*entities.User) error) (*entities.User, error) {
	u, err := scanUser(tx.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		return nil, err
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	u.ID = id
	u.Email = NormalizeEmail(u.Email)
	u.UpdatedAt = time.Now().UTC()

	doc, err := encode(u)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE users SET email = ?, password_hash = ?, is_admin = ?, doc = ? WHERE id = ?`,
		u.Email, u.PasswordHash, u.IsAdmin, doc, id)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// RecordLogin sets the last login time.
func (s *SQLiteStore) RecordLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.UpdateUser(ctx, id, func(u *entities.User) error {
		t := at.UTC()
		u.LastLoginAt = &t
		return nil
	})
	return err
}

// StorePrediction keeps rec as the user's latest analysis.
func (s *SQLiteStore) StorePrediction(ctx context.Context, id string, rec entities.PredictionRecord) error {
	_, err := s.UpdateUser(ctx, id, func(u *entities.User) error {
		u.AIAnalysis = &entities.AIAnalysis{LastPrediction: &rec, LastUpdate: rec.Timestamp}
		return nil
	})
	return err
}

// AddXP credits experience points to the user's session progress.
func (s *SQLiteStore) AddXP(ctx context.Context, id string, xp int) (*entities.User, error) {
	return s.UpdateUser(ctx, id, func(u *entities.User) error {
		u.SessionInfo.TotalXPEarned += xp
		return nil
	})
}

// AssignPlan links an action plan to the user and clears the pending request.
func (s *SQLiteStore) AssignPlan(ctx context.Context, userID, planID string) error {
	_, err := s.UpdateUser(ctx, userID, assignPlan(planID))
	return err
}

func assignPlan(planID string) func(*entities.User) error {
	return func(u *entities.User) error {
		u.AssignedPlan = planID
		u.RequestedPlan = false
		return nil
	}
}
