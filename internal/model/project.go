package model

import "time"

// Project is a client's dashboard entry maintained by admins.  Each user
// owns at most one project (projects.user_id is unique).
type Project struct {
	ID                 uint64    `json:"id"`
	UserID             uint64    `json:"user_id"`
	Name               string    `json:"name"`
	Status             string    `json:"status"`
	Progress           int       `json:"progress"`
	NextInvoiceDate    string    `json:"next_invoice_date"`
	SubscriptionAmount int       `json:"subscription_amount"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Defaults for a freshly created project.
const (
	DefaultProjectName   = "New Project"
	DefaultProjectStatus = "Onboarding"
	DefaultInvoiceDate   = "TBD"
)

// ProjectPatch is a sparse update; nil fields are left untouched.
type ProjectPatch struct {
	Name               *string
	Status             *string
	Progress           *int
	NextInvoiceDate    *string
	SubscriptionAmount *int
}

// Client is a member as listed for admins, with the dashboard project if any.
type Client struct {
	User
	Project *Project `json:"project"`
}
