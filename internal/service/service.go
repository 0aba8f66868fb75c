// Package service holds the application workflows that sit between the HTTP
// handlers and the repositories: registration, email verification, login,
// profile changes and billing event handling.
package service

import "errors"

// Errors returned by the workflows.  Handlers map them to status codes.
var (
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrNotVerified              = errors.New("email not verified")
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
)
