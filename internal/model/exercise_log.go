package model

import "time"

// ExerciseLog records one exercise session for its owning user.
// Date is a calendar date formatted YYYY-MM-DD.
type ExerciseLog struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Date      *string   `json:"date"`
	Exercise  *string   `json:"exercise"`
	Weight    *int      `json:"weight"`
	Reps      int       `json:"reps"`
	Sets      int       `json:"sets"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExerciseLogPatch is a sparse update; nil fields are left untouched.
type ExerciseLogPatch struct {
	Date     *string
	Exercise *string
	Weight   *int
	Reps     *int
	Sets     *int
}

func (p ExerciseLogPatch) Empty() bool {
	return p.Date == nil && p.Exercise == nil && p.Weight == nil && p.Reps == nil && p.Sets == nil
}
