package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/giygas/slim-api/entities"
)

// CreateDemande inserts d. A missing status defaults to pending.
func (s *SQLiteStore) CreateDemande(ctx context.Context, d *entities.Demande) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = entities.DemandeStatusPending
	}
	if !d.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}
	if d.Source == "" {
		d.Source = entities.SourceIntake
	}
	if d.SubmittedAt.IsZero() {
		d.SubmittedAt = time.Now().UTC()
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.SubmittedAt
	}
	if d.Patient == nil {
		d.Patient = map[string]any{}
	}

	doc, err := encode(d)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO demandes (id, user_id, status, submitted_at, doc) VALUES (?, ?, ?, ?, ?)`,
		d.ID, nullable(d.UserID), string(d.Status), formatTime(d.SubmittedAt), doc)
	if err != nil {
		return fmt.Errorf("failed to create demande: %w", err)
	}
	return nil
}

// GetDemande returns the demande with id.
func (s *SQLiteStore) GetDemande(ctx context.Context, id string) (*entities.Demande, error) {
	var d entities.Demande
	if err := getDoc(ctx, s.db, &d, "SELECT doc FROM demandes WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDemandes returns demandes newest first, optionally filtered by status.
func (s *SQLiteStore) ListDemandes(ctx context.Context, status entities.DemandeStatus) ([]entities.Demande, error) {
	if status == "" {
		return listDocs[entities.Demande](ctx, s.db,
			"SELECT doc FROM demandes ORDER BY submitted_at DESC, id")
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return listDocs[entities.Demande](ctx, s.db,
		"SELECT doc FROM demandes WHERE status = ? ORDER BY submitted_at DESC, id", string(status))
}

func (s *SQLiteStore) updateDemande(ctx context.Context, id string, fn func(*entities.Demande) error) (*entities.Demande, error) {
	var updated entities.Demande
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := getDoc(ctx, tx, &updated, "SELECT doc FROM demandes WHERE id = ?", id); err != nil {
			return err
		}
		if err := fn(&updated); err != nil {
			return err
		}
		updated.UpdatedAt = time.Now().UTC()

		doc, err := encode(&updated)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE demandes SET status = ?, doc = ? WHERE id = ?`,
			string(updated.Status), doc, id)
		if err != nil {
			return err
		}
		return checkAffected(res)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateDemandeStatus changes the review status.
func (s *SQLiteStore) UpdateDemandeStatus(ctx context.Context, id string, status entities.DemandeStatus) (*entities.Demande, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.updateDemande(ctx, id, func(d *entities.Demande) error {
		d.Status = status
		return nil
	})
}

// SaveProfiles stores predictions on the demande. A pending demande moves
// to in_progress; other statuses are kept.
func (s *SQLiteStore) SaveProfiles(ctx context.Context, id string, profiles []entities.Prediction, at time.Time) (*entities.Demande, error) {
	return s.updateDemande(ctx, id, func(d *entities.Demande) error {
		t := at.UTC()
		d.Profiles = profiles
		d.AnalyzedAt = &t
		if d.Status == entities.DemandeStatusPending {
			d.Status = entities.DemandeStatusInProgress
		}
		return nil
	})
}

// CountDemandesByStatus returns a count for every status, zero included.
func (s *SQLiteStore) CountDemandesByStatus(ctx context.Context) (map[entities.DemandeStatus]int, error) {
	counts := make(map[entities.DemandeStatus]int, len(entities.DemandeStatuses))
	for _, status := range entities.DemandeStatuses {
		counts[status] = 0
	}

	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM demandes GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[entities.DemandeStatus(status)] = n
	}
	return counts, rows.Err()
}

// CountPendingBefore counts pending demandes submitted before cutoff.
func (s *SQLiteStore) CountPendingBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM demandes WHERE status = ? AND submitted_at < ?",
		string(entities.DemandeStatusPending), formatTime(cutoff)).Scan(&n)
	return n, err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
