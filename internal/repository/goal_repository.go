package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dewhitt/dashboard-api/internal/model"
)

// GoalRepo encapsulates queries on the `goals` table.  Every lookup, update
// and delete is scoped by (id, user_id).
type GoalRepo struct {
	db *sql.DB
}

func NewGoalRepo(db *sql.DB) *GoalRepo {
	return &GoalRepo{db: db}
}

const goalColumns = "id, user_id, description, status, created_at, updated_at"

func scanGoal(row rowScanner) (*model.Goal, error) {
	var (
		g    model.Goal
		desc sql.NullString
	)
	if err := row.Scan(&g.ID, &g.UserID, &desc, &g.Status, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.Description = nullString(desc)
	return &g, nil
}

// Create inserts a goal for g.UserID and returns the stored row.
func (r *GoalRepo) Create(ctx context.Context, g *model.Goal) (*model.Goal, error) {
	if g.Status == "" {
		g.Status = model.GoalOpen
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO goals (user_id, description, status) VALUES (?, ?, ?)",
		g.UserID, g.Description, g.Status)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByIDAndOwner(ctx, uint64(id), g.UserID)
}

// ListByOwner returns the user's goals, newest first.
func (r *GoalRepo) ListByOwner(ctx context.Context, userID uint64) ([]*model.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+goalColumns+" FROM goals WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByIDAndOwner returns ErrGoalNotFound when the goal is missing or owned
// by someone else.
func (r *GoalRepo) GetByIDAndOwner(ctx context.Context, id, userID uint64) (*model.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx,
		"SELECT "+goalColumns+" FROM goals WHERE id = ? AND user_id = ?", id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	return g, nil
}

// Update applies the non-nil fields of p and returns the updated goal.
func (r *GoalRepo) Update(ctx context.Context, id, userID uint64, p model.GoalPatch) (*model.Goal, error) {
	var s setList
	if p.Description != nil {
		s.add("description", *p.Description)
	}
	if p.Status != nil {
		s.add("status", *p.Status)
	}
	if !s.empty() {
		res, err := r.db.ExecContext(ctx,
			"UPDATE goals SET "+s.sql()+" WHERE id = ? AND user_id = ?", append(s.args, id, userID)...)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ErrGoalNotFound
		}
	}
	return r.GetByIDAndOwner(ctx, id, userID)
}

// Delete removes the goal if it belongs to userID.
func (r *GoalRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM goals WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGoalNotFound
	}
	return nil
}
