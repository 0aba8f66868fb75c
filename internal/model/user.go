package model

import "time"

// Role names stored in users.role.
const (
	RoleMember = "Member"
	RoleAdmin  = "Admin"
)

// Subscription states mirrored from the billing provider.
const (
	SubscriptionInactive = "inactive"
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// Plan tiers.
const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// User represents an application user record as stored in the
// `users` table.  PasswordHash, VerificationToken and StripeCustomerID
// never leave the server: they carry `json:"-"`.
//
// Fields:
//
//	ID                – primary key identifier of the user.
//	Email             – unique email address, stored as submitted (trimmed).
//	PasswordHash      – bcrypt hashed password; empty when loaded by the auth guard.
//	Role              – Member or Admin.
//	IsVerified        – set once the emailed verification token is consumed.
//	VerificationToken – single-use token; nil after confirmation.
//	SubscriptionStatus, PlanTier, StripeCustomerID, CurrentPeriodEnd – billing state.
//	Height, CurrentWeight, GoalWeight, Unit – optional fitness profile metrics.
type User struct {
	ID                 uint64     `json:"id"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Role               string     `json:"role"`
	IsVerified         bool       `json:"is_verified"`
	VerificationToken  *string    `json:"-"`
	SubscriptionStatus string     `json:"subscription_status"`
	PlanTier           string     `json:"plan_tier"`
	StripeCustomerID   *string    `json:"-"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	Height             *float64   `json:"height,omitempty"`
	CurrentWeight      *float64   `json:"current_weight,omitempty"`
	GoalWeight         *float64   `json:"goal_weight,omitempty"`
	Unit               *string    `json:"unit,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// DisplayName joins first and last name.
func (u User) DisplayName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Summary is the public-safe view returned alongside a session token.
type Summary struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	PlanTier string `json:"plan_tier"`
}

// Summary returns the public-safe view of u.
func (u User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.DisplayName(), Email: u.Email, Role: u.Role, PlanTier: u.PlanTier}
}

// UserPatch is a sparse profile update; nil fields are left untouched.
// PasswordHash is already hashed by the caller.
type UserPatch struct {
	FirstName    *string
	LastName     *string
	PasswordHash *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.PasswordHash == nil
}

// MetricsPatch is a sparse update of the fitness profile metrics.
type MetricsPatch struct {
	Height        *float64
	CurrentWeight *float64
	GoalWeight    *float64
	Unit          *string
}

func (p MetricsPatch) Empty() bool {
	return p.Height == nil && p.CurrentWeight == nil && p.GoalWeight == nil && p.Unit == nil
}

// SubscriptionUpdate carries billing state applied by webhook events.
// A nil PeriodEnd leaves current_period_end unchanged.
type SubscriptionUpdate struct {
	Status    string
	PlanTier  string
	PeriodEnd *time.Time
}
