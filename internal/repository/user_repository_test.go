package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewhitt/dashboard-api/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var userCols = []string{
	"id", "email", "first_name", "last_name", "role", "is_verified",
	"subscription_status", "plan_tier", "stripe_customer_id", "current_period_end",
	"height", "current_weight", "goal_weight", "unit", "created_at", "updated_at",
}

func userRow(id uint64, email string, verified bool) []driver.Value {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []driver.Value{
		id, email, "Alice", "Smith", model.RoleMember, verified,
		model.SubscriptionInactive, model.PlanFree, nil, nil,
		nil, 70.5, nil, "kg", now, now,
	}
}

func TestUserRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	token := "tok"

	mock.ExpectExec(`INSERT INTO users \(email, password_hash, first_name, last_name, role, is_verified, verification_token\)`).
		WithArgs("alice@example.com", "hash", "Alice", "Smith", model.RoleMember, false, "tok").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery(`(?s)SELECT .* FROM users WHERE id = \?`).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(userRow(9, "alice@example.com", false)...))

	u := &model.User{
		Email: "alice@example.com", PasswordHash: "hash", FirstName: "Alice", LastName: "Smith",
		Role: model.RoleMember, VerificationToken: &token,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, uint64(9), u.ID)
	assert.Equal(t, model.PlanFree, u.PlanTier)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'alice@example.com' for key 'uq_users_email'"})

	err := repo.Create(context.Background(), &model.User{Email: "alice@example.com"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	cols := append(append([]string{}, userCols...), "password_hash")
	row := append(userRow(3, "alice@example.com", true), "$2a$hash")
	mock.ExpectQuery(`(?s)SELECT .*, password_hash FROM users WHERE email = \?`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(row...))

	u, err := repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), u.ID)
	assert.Equal(t, "$2a$hash", u.PasswordHash)
	assert.True(t, u.IsVerified)
	require.NotNil(t, u.CurrentWeight)
	assert.Equal(t, 70.5, *u.CurrentWeight)
	assert.Nil(t, u.Height)
	require.NotNil(t, u.Unit)
	assert.Equal(t, "kg", *u.Unit)
}

func TestUserRepo_GetByEmail_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(`FROM users WHERE email = \?`).WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepo_GetByID_NeverSelectsHash(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(`^SELECT id, email, first_name, last_name, role, is_verified,\s+subscription_status, plan_tier, stripe_customer_id, current_period_end,\s+height, current_weight, goal_weight, unit, created_at, updated_at FROM users WHERE id = \? LIMIT 1$`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(userRow(3, "alice@example.com", true)...))

	u, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)
}

func TestUserRepo_ConfirmEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	q := `UPDATE users SET is_verified = 1, verification_token = NULL WHERE verification_token = \?`

	mock.ExpectExec(q).WithArgs("tok").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("tok").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.ConfirmEmail(context.Background(), "tok"))
	assert.ErrorIs(t, repo.ConfirmEmail(context.Background(), "tok"), ErrVerificationTokenNotFound)
}

func TestUserRepo_UpdateProfile_Sparse(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	name := "Alicia"

	mock.ExpectExec(`^UPDATE users SET first_name = \? WHERE id = \?$`).
		WithArgs("Alicia", uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateProfile(context.Background(), 3, model.UserPatch{FirstName: &name}))
}

func TestUserRepo_UpdateMetrics_Missing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	h, unit := 180.0, "cm"

	mock.ExpectExec(`^UPDATE users SET height = \?, unit = \? WHERE id = \?$`).
		WithArgs(180.0, "cm", uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateMetrics(context.Background(), 99, model.MetricsPatch{Height: &h, Unit: &unit})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepo_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(`DELETE FROM users WHERE id = \?`).WithArgs(uint64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = \?`).WithArgs(uint64(6)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 5))
	assert.ErrorIs(t, repo.Delete(context.Background(), 6), ErrUserNotFound)
}

func TestUserRepo_ListMembersWithProjects(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	now := time.Now().UTC()

	cols := append(append([]string{}, userCols...),
		"p.id", "p.name", "p.status", "p.progress", "p.next_invoice_date", "p.subscription_amount", "p.created_at", "p.updated_at")
	rows := sqlmock.NewRows(cols).
		AddRow(append(userRow(1, "a@example.com", true), int64(10), "Site", "Live", int64(80), "2026-02-01", int64(99), now, now)...).
		AddRow(append(userRow(2, "b@example.com", false), nil, nil, nil, nil, nil, nil, nil, nil)...)
	mock.ExpectQuery(`LEFT JOIN projects p ON p.user_id = u.id\s+WHERE u.role = \?`).
		WithArgs(model.RoleMember).
		WillReturnRows(rows)

	clients, err := repo.ListMembersWithProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 2)
	require.NotNil(t, clients[0].Project)
	assert.Equal(t, "Site", clients[0].Project.Name)
	assert.Equal(t, 80, clients[0].Project.Progress)
	assert.Nil(t, clients[1].Project)
}

func TestUserRepo_UpdateSubscriptionByCustomer(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`^UPDATE users SET subscription_status = \?, plan_tier = \?, current_period_end = \? WHERE stripe_customer_id = \?$`).
		WithArgs(model.SubscriptionActive, model.PlanPremium, end, "cus_123").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`WHERE stripe_customer_id = \?`).
		WithArgs(model.SubscriptionCanceled, model.PlanFree, "cus_unknown").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateSubscriptionByCustomer(context.Background(), "cus_123",
		model.SubscriptionUpdate{Status: model.SubscriptionActive, PlanTier: model.PlanPremium, PeriodEnd: &end}))
	err := repo.UpdateSubscriptionByCustomer(context.Background(), "cus_unknown",
		model.SubscriptionUpdate{Status: model.SubscriptionCanceled, PlanTier: model.PlanFree})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepo_SetBillingCustomer(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(`^UPDATE users SET stripe_customer_id = \?, subscription_status = \?, plan_tier = \? WHERE id = \?$`).
		WithArgs("cus_1", model.SubscriptionActive, model.PlanPremium, uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetBillingCustomer(context.Background(), 4, "cus_1",
		model.SubscriptionUpdate{Status: model.SubscriptionActive, PlanTier: model.PlanPremium}))
}

func TestUserRepo_SetBillingCustomer_LinkedElsewhere(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(`^UPDATE users SET stripe_customer_id = \?`).
		WithArgs("cus_1", model.SubscriptionActive, model.PlanPremium, uint64(5)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'cus_1' for key 'uq_users_stripe_customer'"})

	err := repo.SetBillingCustomer(context.Background(), 5, "cus_1",
		model.SubscriptionUpdate{Status: model.SubscriptionActive, PlanTier: model.PlanPremium})
	assert.ErrorIs(t, err, ErrCustomerLinked)
}

func TestIsMySQLError(t *testing.T) {
	assert.True(t, isMySQLError(&mysql.MySQLError{Number: 1452}, mysqlNoReferencedRow))
	assert.False(t, isMySQLError(&mysql.MySQLError{Number: 1062}, mysqlNoReferencedRow))
	assert.True(t, isMySQLError(errors.New("Error 1062 (23000): Duplicate entry"), mysqlDuplicateEntry))
	assert.False(t, isMySQLError(nil, mysqlDuplicateEntry))
}
