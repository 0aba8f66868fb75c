package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/labstack/echo/v4"

	"github.com/dewhitt/dashboard-api/internal/model"
	"github.com/dewhitt/dashboard-api/internal/repository"
	"github.com/dewhitt/dashboard-api/internal/service"
)

// Authenticator is the auth workflow the handlers drive.
type Authenticator interface {
	Register(ctx context.Context, in service.RegisterInput) (model.User, error)
	Confirm(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (service.LoginResult, error)
}

// AuthHandler serves registration, email verification and login.
type AuthHandler struct {
	Auth Authenticator
}

func NewAuthHandler(a Authenticator) *AuthHandler {
	return &AuthHandler{Auth: a}
}

// ----- DTOs -----

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (r *registerReq) trim() { trimSpace(&r.Email, &r.FirstName, &r.LastName) }

func (r registerReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required.Error("First name is required")),
		validation.Field(&r.LastName, validation.Required.Error("Last name is required")),
		validation.Field(&r.Email, validation.Required, is.Email.Error("Please include a valid email")),
		validation.Field(&r.Password, append([]validation.Rule{validation.Required}, passwordRules()...)...),
	)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *loginReq) trim() { trimSpace(&r.Email) }

func (r loginReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email.Error("Please include a valid email")),
		validation.Field(&r.Password, validation.Required.Error("Password is required")),
	)
}

type verifyReq struct {
	Token string `json:"token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type loginResp struct {
	Success bool          `json:"success"`
	Token   string        `json:"token"`
	Access  tokenPart     `json:"access"`
	User    model.Summary `json:"user"`
}

// Register creates an unverified account and asks the caller to check
// their email.  No session token is issued until the address is confirmed.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if ok, err := bind(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Auth.Register(ctx, service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, "User already exists")
		}
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Registration successful! Please check your email to verify your account.",
		"user":    u.Summary(),
	})
}

// VerifyEmail consumes the token from the verification link.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Auth.Confirm(ctx, req.Token); err != nil {
		if errors.Is(err, service.ErrInvalidVerificationToken) {
			return fail(c, http.StatusBadRequest, "Invalid or expired token")
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Email verified successfully! You can now log in.",
	})
}

// Login exchanges credentials for a session token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bind(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrNotVerified):
		return fail(c, http.StatusUnauthorized, "Please verify your email before logging in.")
	case err != nil:
		return err
	}
	return c.JSON(http.StatusOK, loginResp{
		Success: true,
		Token:   res.Token.Token,
		Access:  tokenPart{Token: res.Token.Token, Expires: res.Token.Exp},
		User:    res.User,
	})
}
