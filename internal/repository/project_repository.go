package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dewhitt/dashboard-api/internal/model"
)

// ProjectRepo manages the one-per-user dashboard project.
type ProjectRepo struct {
	db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

const projectColumns = "id, user_id, name, status, progress, next_invoice_date, subscription_amount, created_at, updated_at"

// GetByOwner returns the project owned by userID.
func (r *ProjectRepo) GetByOwner(ctx context.Context, userID uint64) (*model.Project, error) {
	var p model.Project
	err := r.db.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE user_id = ?", userID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Status, &p.Progress, &p.NextInvoiceDate, &p.SubscriptionAmount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert creates the user's project from defaults overlaid with p, or
// applies the non-nil fields of p to the existing one.  One statement, so
// concurrent upserts for the same user cannot create two rows.  Returns
// ErrUserNotFound when userID does not exist.
func (r *ProjectRepo) Upsert(ctx context.Context, userID uint64, p model.ProjectPatch) (*model.Project, error) {
	const q = `INSERT INTO projects (user_id, name, status, progress, next_invoice_date, subscription_amount)
	VALUES (?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
	    name = COALESCE(?, name),
	    status = COALESCE(?, status),
	    progress = COALESCE(?, progress),
	    next_invoice_date = COALESCE(?, next_invoice_date),
	    subscription_amount = COALESCE(?, subscription_amount)`

	_, err := r.db.ExecContext(ctx, q,
		userID,
		strOr(p.Name, model.DefaultProjectName),
		strOr(p.Status, model.DefaultProjectStatus),
		intOr(p.Progress, 0),
		strOr(p.NextInvoiceDate, model.DefaultInvoiceDate),
		intOr(p.SubscriptionAmount, 0),
		p.Name, p.Status, p.Progress, p.NextInvoiceDate, p.SubscriptionAmount,
	)
	if err != nil {
		if isMySQLError(err, mysqlNoReferencedRow) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return r.GetByOwner(ctx, userID)
}

func strOr(p *string, def string) string {
	if p != nil {
		return *p
	}
	return def
}

func intOr(p *int, def int) int {
	if p != nil {
		return *p
	}
	return def
}
