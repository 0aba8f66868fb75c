// Package queue defines message payloads exchanged over the message broker
// and the publisher and consumer that move them.
package queue

import "time"

// VerificationRequested is published after a registration and asks the
// mailer to deliver the verification link.  It carries everything the mail
// needs so the consumer never touches the database.
type VerificationRequested struct {
	ID          string    `json:"id"`
	UserID      uint64    `json:"user_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	VerifyURL   string    `json:"verify_url"`
	RequestedAt time.Time `json:"requested_at"`
}
