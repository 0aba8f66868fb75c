package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dewhitt/dashboard-api/internal/model"
)

// ExerciseLogRepo encapsulates queries on the `exercise_logs` table, always
// scoped by owner.
type ExerciseLogRepo struct {
	db *sql.DB
}

func NewExerciseLogRepo(db *sql.DB) *ExerciseLogRepo {
	return &ExerciseLogRepo{db: db}
}

const logColumns = "id, user_id, date, exercise, weight, reps, sets, created_at, updated_at"

func scanLog(row rowScanner) (*model.ExerciseLog, error) {
	var (
		l        model.ExerciseLog
		date     sql.NullTime
		exercise sql.NullString
		weight   sql.NullInt64
	)
	if err := row.Scan(&l.ID, &l.UserID, &date, &exercise, &weight, &l.Reps, &l.Sets, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.Date = dateString(date)
	l.Exercise = nullString(exercise)
	l.Weight = nullInt(weight)
	return &l, nil
}

// Create inserts a log for l.UserID and returns the stored row.
func (r *ExerciseLogRepo) Create(ctx context.Context, l *model.ExerciseLog) (*model.ExerciseLog, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO exercise_logs (user_id, date, exercise, weight, reps, sets) VALUES (?, ?, ?, ?, ?, ?)",
		l.UserID, l.Date, l.Exercise, l.Weight, l.Reps, l.Sets)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByIDAndOwner(ctx, uint64(id), l.UserID)
}

// ListByOwner returns the user's logs by date, newest first.
func (r *ExerciseLogRepo) ListByOwner(ctx context.Context, userID uint64) ([]*model.ExerciseLog, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+logColumns+" FROM exercise_logs WHERE user_id = ? ORDER BY date DESC, created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.ExerciseLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ExerciseLogRepo) GetByIDAndOwner(ctx context.Context, id, userID uint64) (*model.ExerciseLog, error) {
	l, err := scanLog(r.db.QueryRowContext(ctx,
		"SELECT "+logColumns+" FROM exercise_logs WHERE id = ? AND user_id = ?", id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLogNotFound
		}
		return nil, err
	}
	return l, nil
}

// Update applies the non-nil fields of p and returns the updated log.
func (r *ExerciseLogRepo) Update(ctx context.Context, id, userID uint64, p model.ExerciseLogPatch) (*model.ExerciseLog, error) {
	var s setList
	if p.Date != nil {
		s.add("date", *p.Date)
	}
	if p.Exercise != nil {
		s.add("exercise", *p.Exercise)
	}
	if p.Weight != nil {
		s.add("weight", *p.Weight)
	}
	if p.Reps != nil {
		s.add("reps", *p.Reps)
	}
	if p.Sets != nil {
		s.add("sets", *p.Sets)
	}
	if !s.empty() {
		res, err := r.db.ExecContext(ctx,
			"UPDATE exercise_logs SET "+s.sql()+" WHERE id = ? AND user_id = ?", append(s.args, id, userID)...)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ErrLogNotFound
		}
	}
	return r.GetByIDAndOwner(ctx, id, userID)
}

func (r *ExerciseLogRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM exercise_logs WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLogNotFound
	}
	return nil
}
