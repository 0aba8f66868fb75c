package handler

import (
	"context"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"github.com/dewhitt/dashboard-api/internal/model"
	"github.com/dewhitt/dashboard-api/internal/repository"
	"github.com/dewhitt/dashboard-api/internal/service"
)

// Profiles is the profile workflow used by UserHandler.
type Profiles interface {
	Profile(ctx context.Context, id uint64) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, in service.ProfileInput) (model.User, error)
	UpdateMetrics(ctx context.Context, id uint64, p model.MetricsPatch) (model.User, error)
}

// UserHandler serves the signed-in user's own profile.
type UserHandler struct {
	Users Profiles
}

func NewUserHandler(p Profiles) *UserHandler { return &UserHandler{Users: p} }

type profileReq struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Password  *string `json:"password"`
}

func (r *profileReq) trim() { trimSpace(r.FirstName, r.LastName) }

func (r profileReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.NilOrNotEmpty.Error("First name cannot be empty")),
		validation.Field(&r.LastName, validation.NilOrNotEmpty.Error("Last name cannot be empty")),
		validation.Field(&r.Password, append([]validation.Rule{validation.NilOrNotEmpty}, passwordRules()...)...),
	)
}

type metricsReq struct {
	Height        *float64 `json:"height"`
	CurrentWeight *float64 `json:"current_weight"`
	GoalWeight    *float64 `json:"goal_weight"`
	Unit          *string  `json:"unit"`
}

func (r *metricsReq) trim() { trimSpace(r.Unit) }

func (r metricsReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Height, validation.Min(0.0)),
		validation.Field(&r.CurrentWeight, validation.Min(0.0)),
		validation.Field(&r.GoalWeight, validation.Min(0.0)),
		validation.Field(&r.Unit, validation.NilOrNotEmpty, validation.Length(1, 8)),
	)
}

// GetProfile returns the caller's record.
func (h *UserHandler) GetProfile(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.Profile(ctx, uid)
	if err != nil {
		return userError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": u})
}

// UpdateProfile changes the caller's names and/or password.  Omitted fields
// keep their values.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	var req profileReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, uid, service.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		return userError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Profile updated successfully", "user": u})
}

// SetupProfile records fitness metrics.  The path id must be the caller's
// own; any other id is reported as not found.
func (h *UserHandler) SetupProfile(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok || id != uid {
		return fail(c, http.StatusNotFound, "User not found")
	}
	var req metricsReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.UpdateMetrics(ctx, uid, model.MetricsPatch{
		Height:        req.Height,
		CurrentWeight: req.CurrentWeight,
		GoalWeight:    req.GoalWeight,
		Unit:          req.Unit,
	})
	if err != nil {
		return userError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Profile metrics saved successfully.", "user": u})
}

func userError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return fail(c, http.StatusNotFound, "User not found")
	}
	return err
}
