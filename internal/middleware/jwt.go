package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"  // context for the user lookup
	"errors"   // errors.Is on repository sentinels
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for scheme matching

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/dewhitt/dashboard-api/internal/logging"    // structured logging
	"github.com/dewhitt/dashboard-api/internal/model"      // user record type
	"github.com/dewhitt/dashboard-api/internal/repository" // ErrUserNotFound
	"github.com/dewhitt/dashboard-api/internal/utils"      // token codec
)

// Messages returned by the guard.  Token rejection reasons are collapsed
// into msgInvalidToken; the precise reason is only logged.
const (
	msgNoToken       = "Not authorized, no token"
	msgMalformed     = "Not authorized, token malformed"
	msgInvalidToken  = "Not authorized, token failed or expired"
	msgUserNotExists = "Not authorized, user no longer exists"
)

// TokenVerifier checks a raw bearer token.
type TokenVerifier interface {
	Verify(raw string) (utils.Claims, error)
}

// UserLookup resolves a token subject to the current user record.  The
// returned user must not carry the password hash.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// JWTAuth returns an Echo middleware that gates a route behind a valid
// session token.  On success the resolved user is stored in the context
// under "user", with "user_id" and "role" alongside; handlers read them via
// CurrentUser and CurrentUserID.
func JWTAuth(tokens TokenVerifier, users UserLookup, log logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, msg := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if msg != "" {
				return unauthorized(c, msg)
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				log.Info(c.Request().Context(), "token rejected", "reason", err.Error(), "ip", c.RealIP())
				return unauthorized(c, msgInvalidToken)
			}

			u, err := users.GetByID(c.Request().Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					return unauthorized(c, msgUserNotExists)
				}
				return err // top-level error handler answers 500
			}
			u.PasswordHash = ""
			u.VerificationToken = nil

			c.Set(ctxUser, u)
			c.Set(ctxUserID, u.ID)
			c.Set(ctxRole, u.Role)
			return next(c)
		}
	}
}

// bearerToken extracts the token from an Authorization header value.  The
// scheme is matched case-insensitively.  A header without the Bearer scheme
// counts as no token; "Bearer" with nothing (or more than one segment) after
// it is malformed.
func bearerToken(header string) (token, msg string) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", msgNoToken
	}
	scheme, rest, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", msgNoToken
	}
	rest = strings.TrimSpace(rest)
	if rest == "" || strings.ContainsAny(rest, " \t") {
		return "", msgMalformed
	}
	return rest, ""
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": msg})
}
