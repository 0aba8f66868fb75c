package handler

import (
	"context"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"github.com/dewhitt/dashboard-api/internal/model"
	"github.com/dewhitt/dashboard-api/internal/repository"
)

// GoalStore is implemented by repository.GoalRepo.  Every method that takes
// an id also takes the owner and must match both.
type GoalStore interface {
	Create(ctx context.Context, g *model.Goal) (*model.Goal, error)
	ListByOwner(ctx context.Context, userID uint64) ([]*model.Goal, error)
	Update(ctx context.Context, id, userID uint64, p model.GoalPatch) (*model.Goal, error)
	Delete(ctx context.Context, id, userID uint64) error
}

// GoalHandler serves the caller's own goals.
type GoalHandler struct {
	Goals GoalStore
}

func NewGoalHandler(s GoalStore) *GoalHandler { return &GoalHandler{Goals: s} }

var goalStatuses = []interface{}{model.GoalOpen, model.GoalInProgress, model.GoalCompleted}

type createGoalReq struct {
	Description string `json:"description"`
}

func (r *createGoalReq) trim() { trimSpace(&r.Description) }

func (r createGoalReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Description, validation.Required.Error("Please add a goal description"), validation.Length(1, 255)),
	)
}

type updateGoalReq struct {
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (r *updateGoalReq) trim() { trimSpace(r.Description, r.Status) }

func (r updateGoalReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Description, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.Status, validation.NilOrNotEmpty, validation.In(goalStatuses...).Error("Status must be open, in_progress or completed")),
	)
}

// Create adds an open goal for the caller.
func (h *GoalHandler) Create(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	var req createGoalReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	g, err := h.Goals.Create(ctx, &model.Goal{UserID: uid, Description: &req.Description, Status: model.GoalOpen})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "goal": g})
}

// List returns the caller's goals, newest first.
func (h *GoalHandler) List(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	goals, err := h.Goals.ListByOwner(ctx, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "goals": goals})
}

// Update changes description and/or status of one of the caller's goals.
func (h *GoalHandler) Update(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return goalNotFound(c)
	}
	var req updateGoalReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	g, err := h.Goals.Update(ctx, id, uid, model.GoalPatch{Description: req.Description, Status: req.Status})
	if errors.Is(err, repository.ErrGoalNotFound) {
		return goalNotFound(c)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Goal updated successfully", "goal": g})
}

// Delete removes one of the caller's goals.
func (h *GoalHandler) Delete(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return goalNotFound(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Goals.Delete(ctx, id, uid); err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			return goalNotFound(c)
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Goal deleted successfully"})
}

func goalNotFound(c echo.Context) error { return fail(c, http.StatusNotFound, "Goal not found") }
