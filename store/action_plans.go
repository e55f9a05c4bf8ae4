package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/giygas/slim-api/entities"
)

// CreateActionPlan inserts p, assigning an id and creation time when missing.
func (s *SQLiteStore) CreateActionPlan(ctx context.Context, p *entities.ActionPlan) error {
	return insertActionPlan(ctx, s.db, p)
}

// AssignActionPlan inserts p and makes it the assigned plan of p.UserID in
// one transaction. Nothing is written when the user does not exist.
func (s *SQLiteStore) AssignActionPlan(ctx context.Context, p *entities.ActionPlan) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertActionPlan(ctx, tx, p); err != nil {
			return err
		}
		_, err := updateUserTx(ctx, tx, p.UserID, assignPlan(p.ID))
		return err
	})
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertActionPlan(ctx context.Context, db execer, p *entities.ActionPlan) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Profiles == nil {
		p.Profiles = []entities.PlanProfile{}
	}

	doc, err := encode(p)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO action_plans (id, demande_id, user_id, created_at, doc) VALUES (?, ?, ?, ?, ?)`,
		p.ID, nullable(p.DemandeID), nullable(p.UserID), formatTime(p.CreatedAt), doc)
	if err != nil {
		return fmt.Errorf("failed to create action plan: %w", err)
	}
	return nil
}

// GetActionPlan returns the plan with id.
func (s *SQLiteStore) GetActionPlan(ctx context.Context, id string) (*entities.ActionPlan, error) {
	var p entities.ActionPlan
	if err := getDoc(ctx, s.db, &p, "SELECT doc FROM action_plans WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListActionPlansByDemande returns the plans of a demande, newest first.
func (s *SQLiteStore) ListActionPlansByDemande(ctx context.Context, demandeID string) ([]entities.ActionPlan, error) {
	return listDocs[entities.ActionPlan](ctx, s.db,
		"SELECT doc FROM action_plans WHERE demande_id = ? ORDER BY created_at DESC, id", demandeID)
}

// ListActionPlansByUser returns the plans assigned to a user, newest first.
func (s *SQLiteStore) ListActionPlansByUser(ctx context.Context, userID string) ([]entities.ActionPlan, error) {
	return listDocs[entities.ActionPlan](ctx, s.db,
		"SELECT doc FROM action_plans WHERE user_id = ? ORDER BY created_at DESC, id", userID)
}
