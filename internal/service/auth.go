package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dewhitt/dashboard-api/internal/logging"
	"github.com/dewhitt/dashboard-api/internal/model"
	"github.com/dewhitt/dashboard-api/internal/queue"
	"github.com/dewhitt/dashboard-api/internal/repository"
	"github.com/dewhitt/dashboard-api/internal/utils"
)

// UserStore is the slice of the credential store the auth workflow needs.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	ConfirmEmail(ctx context.Context, token string) error
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID uint64, role string) (utils.AccessToken, error)
}

// AuthConfig carries the settings the auth workflow reads.
type AuthConfig struct {
	BcryptCost    int
	ClientURL     string
	NotifyTimeout time.Duration
}

// AuthService implements registration, email confirmation and login.
type AuthService struct {
	users  UserStore
	tokens TokenIssuer
	cfg    AuthConfig
	log    logging.Logger
	notify *dispatcher

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users UserStore, tokens TokenIssuer, notifier Notifier, cfg AuthConfig, log logging.Logger) *AuthService {
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		cfg:    cfg,
		log:    log,
		notify: &dispatcher{notifier: notifier, timeout: cfg.NotifyTimeout, log: log},
	}
}

// RegisterInput is a validated registration request.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates an unverified Member and sends the verification link in
// the background.  A duplicate email yields repository.ErrEmailExists.
// Notification failures are logged and never fail the registration.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, err
	}
	token, err := utils.NewVerificationToken()
	if err != nil {
		return model.User{}, err
	}

	u := model.User{
		Email:             strings.TrimSpace(in.Email),
		PasswordHash:      hash,
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		Role:              model.RoleMember,
		VerificationToken: &token,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return model.User{}, err
	}
	s.log.Info(ctx, "user registered", "user_id", u.ID)

	s.notify.dispatch(ctx, queue.VerificationRequested{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.FirstName,
		VerifyURL: s.verifyURL(token),
	})

	u.PasswordHash = ""
	u.VerificationToken = nil
	return u, nil
}

func (s *AuthService) verifyURL(token string) string {
	return s.cfg.ClientURL + "/verify-email?token=" + url.QueryEscape(token)
}

// Confirm consumes a verification token.  Unknown, empty and already used
// tokens all yield ErrInvalidVerificationToken.
func (s *AuthService) Confirm(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidVerificationToken
	}
	if err := s.users.ConfirmEmail(ctx, token); err != nil {
		if errors.Is(err, repository.ErrVerificationTokenNotFound) {
			return ErrInvalidVerificationToken
		}
		return err
	}
	return nil
}

// LoginResult is a freshly issued session plus the caller's public summary.
type LoginResult struct {
	Token utils.AccessToken
	User  model.Summary
}

// Login authenticates by email and password.  Unknown email and wrong
// password both return ErrInvalidCredentials, and both cost one bcrypt
// comparison.  A correct password on an unverified account returns
// ErrNotVerified.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			utils.VerifyPassword(s.dummy(), password)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if !u.IsVerified {
		return LoginResult{}, ErrNotVerified
	}

	tok, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return LoginResult{}, err
	}
	s.log.Info(ctx, "user logged in", "user_id", u.ID)
	return LoginResult{Token: tok, User: u.Summary()}, nil
}

// dummy returns a hash at the configured cost, used to equalize timing for
// unknown emails.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = utils.HashPassword("dummy-password-for-timing", s.cfg.BcryptCost)
	})
	return s.dummyHash
}

// Wait blocks until background notifications have finished.  The server
// calls it during shutdown.
func (s *AuthService) Wait() { s.notify.wait() }
