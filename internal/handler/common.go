package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"github.com/dewhitt/dashboard-api/internal/middleware"
	"github.com/dewhitt/dashboard-api/internal/utils"
)

// dbTimeout bounds the store calls made by one request.
const dbTimeout = 5 * time.Second

// fail writes the standard error envelope.
func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"success": false, "message": msg})
}

// invalid answers 400 with one message per offending field.
func invalid(c echo.Context, err error) error {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	fields := make(map[string]string, len(verrs))
	for k, v := range verrs {
		fields[k] = v.Error()
	}
	return c.JSON(http.StatusBadRequest, echo.Map{
		"success": false,
		"message": "Validation failed",
		"errors":  fields,
	})
}

// trimmer is implemented by request bodies whose text fields are stored
// without surrounding whitespace.
type trimmer interface {
	trim()
}

// trimSpace trims each non-nil string in place.
func trimSpace(ss ...*string) {
	for _, s := range ss {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
}

// passwordRules bounds a password between 6 characters and the bcrypt
// input limit.  Works for string and *string fields.
func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Length(6, 0).Error("Password must be 6 or more characters"),
		validation.By(func(v interface{}) error {
			var s string
			switch t := v.(type) {
			case string:
				s = t
			case *string:
				if t != nil {
					s = *t
				}
			}
			if len(s) > utils.MaxPasswordBytes {
				return errors.New("Password must be at most 72 bytes")
			}
			return nil
		}),
	}
}

// bind decodes the request body, trims it when it is a trimmer and runs
// v.Validate.  It writes the 400 response itself and reports false when the
// request must stop.
func bind(c echo.Context, v validation.Validatable) (bool, error) {
	if err := c.Bind(v); err != nil {
		return false, fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if t, ok := v.(trimmer); ok {
		t.trim()
	}
	if err := v.Validate(); err != nil {
		return false, invalid(c, err)
	}
	return true, nil
}

// callerID returns the authenticated user's id.  JWTAuth guarantees it on
// protected routes, so a miss is answered as unauthenticated.
func callerID(c echo.Context) (uint64, error) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Not authorized")
	}
	return id, nil
}

// pathID parses a positive integer path parameter.  Any other value is
// reported as not found so it looks the same as a foreign id.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
