package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dewhitt/dashboard-api/internal/model"
)

// UserRepo is the credential store: it owns the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// publicColumns excludes password_hash and verification_token.
const publicColumns = `id, email, first_name, last_name, role, is_verified,
	subscription_status, plan_tier, stripe_customer_id, current_period_end,
	height, current_weight, goal_weight, unit, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPublicUser(row rowScanner, extra ...any) (model.User, error) {
	var (
		u          model.User
		customerID sql.NullString
		periodEnd  sql.NullTime
		height     sql.NullFloat64
		current    sql.NullFloat64
		goal       sql.NullFloat64
		unit       sql.NullString
	)
	dest := []any{
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.IsVerified,
		&u.SubscriptionStatus, &u.PlanTier, &customerID, &periodEnd,
		&height, &current, &goal, &unit, &u.CreatedAt, &u.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return model.User{}, err
	}
	u.StripeCustomerID = nullString(customerID)
	if periodEnd.Valid {
		t := periodEnd.Time
		u.CurrentPeriodEnd = &t
	}
	u.Height = nullFloat(height)
	u.CurrentWeight = nullFloat(current)
	u.GoalWeight = nullFloat(goal)
	u.Unit = nullString(unit)
	return u, nil
}

// Create inserts an unverified user and fills in ID and timestamps.  The
// caller supplies the password hash and verification token.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, role, is_verified, verification_token)
		 VALUES (?,?,?,?,?,?,?)`,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.IsVerified, u.VerificationToken)
	if err != nil {
		if isMySQLError(err, mysqlDuplicateEntry) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)

	created, err := r.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	u.SubscriptionStatus = created.SubscriptionStatus
	u.PlanTier = created.PlanTier
	u.CreatedAt = created.CreatedAt
	u.UpdatedAt = created.UpdatedAt
	return nil
}

// GetByEmail fetches a user including the password hash, for login.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var hash string
	u, err := scanPublicUser(r.DB.QueryRowContext(ctx,
		"SELECT "+publicColumns+", password_hash FROM users WHERE email = ? LIMIT 1", email), &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	u.PasswordHash = hash
	return u, nil
}

// GetByID fetches a user by id.  The password hash is never selected.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanPublicUser(r.DB.QueryRowContext(ctx,
		"SELECT "+publicColumns+" FROM users WHERE id = ? LIMIT 1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return u, nil
}

// ConfirmEmail marks the owner of token verified and clears the token in a
// single statement, so two concurrent confirmations cannot both succeed.
func (r *UserRepo) ConfirmEmail(ctx context.Context, token string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_verified = 1, verification_token = NULL WHERE verification_token = ?",
		token)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrVerificationTokenNotFound
	}
	return nil
}

// UpdateProfile applies the non-nil fields of p.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, p model.UserPatch) error {
	var s setList
	if p.FirstName != nil {
		s.add("first_name", *p.FirstName)
	}
	if p.LastName != nil {
		s.add("last_name", *p.LastName)
	}
	if p.PasswordHash != nil {
		s.add("password_hash", *p.PasswordHash)
	}
	return r.update(ctx, id, &s)
}

// UpdateMetrics applies the non-nil fitness metrics of p.
func (r *UserRepo) UpdateMetrics(ctx context.Context, id uint64, p model.MetricsPatch) error {
	var s setList
	if p.Height != nil {
		s.add("height", *p.Height)
	}
	if p.CurrentWeight != nil {
		s.add("current_weight", *p.CurrentWeight)
	}
	if p.GoalWeight != nil {
		s.add("goal_weight", *p.GoalWeight)
	}
	if p.Unit != nil {
		s.add("unit", *p.Unit)
	}
	return r.update(ctx, id, &s)
}

func (r *UserRepo) update(ctx context.Context, id uint64, s *setList) error {
	if s.empty() {
		_, err := r.GetByID(ctx, id)
		return err
	}
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET "+s.sql()+" WHERE id = ?", append(s.args, id)...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user; goals, logs and the project cascade.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListMembersWithProjects returns every Member with their project, if any,
// ordered by id.
func (r *UserRepo) ListMembersWithProjects(ctx context.Context) ([]model.Client, error) {
	const q = `SELECT u.id, u.email, u.first_name, u.last_name, u.role, u.is_verified,
	       u.subscription_status, u.plan_tier, u.stripe_customer_id, u.current_period_end,
	       u.height, u.current_weight, u.goal_weight, u.unit, u.created_at, u.updated_at,
	       p.id, p.name, p.status, p.progress, p.next_invoice_date, p.subscription_amount,
	       p.created_at, p.updated_at
	FROM users u
	LEFT JOIN projects p ON p.user_id = u.id
	WHERE u.role = ?
	ORDER BY u.id`
	rows, err := r.DB.QueryContext(ctx, q, model.RoleMember)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Client{}
	for rows.Next() {
		var (
			pID       sql.NullInt64
			pName     sql.NullString
			pStatus   sql.NullString
			pProgress sql.NullInt64
			pInvoice  sql.NullString
			pAmount   sql.NullInt64
			pCreated  sql.NullTime
			pUpdated  sql.NullTime
		)
		u, err := scanPublicUser(rows, &pID, &pName, &pStatus, &pProgress, &pInvoice, &pAmount, &pCreated, &pUpdated)
		if err != nil {
			return nil, err
		}
		c := model.Client{User: u}
		if pID.Valid {
			c.Project = &model.Project{
				ID:                 uint64(pID.Int64),
				UserID:             u.ID,
				Name:               pName.String,
				Status:             pStatus.String,
				Progress:           int(pProgress.Int64),
				NextInvoiceDate:    pInvoice.String,
				SubscriptionAmount: int(pAmount.Int64),
				CreatedAt:          pCreated.Time,
				UpdatedAt:          pUpdated.Time,
			}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetBillingCustomer links a billing customer to a user and records the
// subscription state that came with it.  A customer already linked to a
// different user yields ErrCustomerLinked.
func (r *UserRepo) SetBillingCustomer(ctx context.Context, userID uint64, customerID string, upd model.SubscriptionUpdate) error {
	var s setList
	s.add("stripe_customer_id", customerID)
	addSubscription(&s, upd)
	err := r.update(ctx, userID, &s)
	if isMySQLError(err, mysqlDuplicateEntry) {
		return ErrCustomerLinked
	}
	return err
}

// UpdateSubscriptionByCustomer applies upd to the user linked to customerID.
func (r *UserRepo) UpdateSubscriptionByCustomer(ctx context.Context, customerID string, upd model.SubscriptionUpdate) error {
	var s setList
	addSubscription(&s, upd)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+s.sql()+" WHERE stripe_customer_id = ?", append(s.args, customerID)...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func addSubscription(s *setList, upd model.SubscriptionUpdate) {
	s.add("subscription_status", upd.Status)
	s.add("plan_tier", upd.PlanTier)
	if upd.PeriodEnd != nil {
		s.add("current_period_end", upd.PeriodEnd.UTC())
	}
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}

func nullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

func dateString(nt sql.NullTime) *string {
	if !nt.Valid {
		return nil
	}
	v := nt.Time.Format(time.DateOnly)
	return &v
}
