package model

import "time"

// Goal statuses.
const (
	GoalOpen       = "open"
	GoalInProgress = "in_progress"
	GoalCompleted  = "completed"
)

// Goal is a fitness goal owned by exactly one user (goals.user_id).
type Goal struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GoalPatch is a sparse update; nil fields are left untouched.
type GoalPatch struct {
	Description *string
	Status      *string
}

func (p GoalPatch) Empty() bool { return p.Description == nil && p.Status == nil }
