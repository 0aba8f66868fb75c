package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"github.com/dewhitt/dashboard-api/internal/model"
	"github.com/dewhitt/dashboard-api/internal/repository"
)

// ExerciseLogStore is implemented by repository.ExerciseLogRepo.
type ExerciseLogStore interface {
	Create(ctx context.Context, l *model.ExerciseLog) (*model.ExerciseLog, error)
	ListByOwner(ctx context.Context, userID uint64) ([]*model.ExerciseLog, error)
	Update(ctx context.Context, id, userID uint64, p model.ExerciseLogPatch) (*model.ExerciseLog, error)
	Delete(ctx context.Context, id, userID uint64) error
}

// LogHandler serves the caller's exercise logs.
type LogHandler struct {
	Logs ExerciseLogStore
	now  func() time.Time
}

func NewLogHandler(s ExerciseLogStore) *LogHandler {
	return &LogHandler{Logs: s, now: time.Now}
}

type logReq struct {
	Date     *string `json:"date"`
	Exercise *string `json:"exercise"`
	Weight   *int    `json:"weight"`
	Reps     *int    `json:"reps"`
	Sets     *int    `json:"sets"`
}

// validDate accepts YYYY-MM-DD, as a string or *string.
func validDate(v interface{}) error {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case *string:
		if t != nil {
			s = *t
		}
	}
	if s == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return errors.New("must be a date in YYYY-MM-DD format")
	}
	return nil
}

func (r *logReq) trim() { trimSpace(r.Date, r.Exercise) }

// rules returns the field rules for r.  The rules point into r, so r must be
// the same pointer later passed to ValidateStruct.
func (r *logReq) rules(create bool) []*validation.FieldRules {
	nonNeg := validation.Min(0)
	fields := []*validation.FieldRules{
		validation.Field(&r.Date, validation.By(validDate)),
		validation.Field(&r.Weight, nonNeg),
	}
	if create {
		msg := "Please include the exercise name, reps, and sets."
		return append(fields,
			validation.Field(&r.Exercise, validation.Required.Error(msg), validation.Length(1, 255)),
			validation.Field(&r.Reps, validation.Required.Error(msg), nonNeg),
			validation.Field(&r.Sets, validation.Required.Error(msg), nonNeg),
		)
	}
	return append(fields,
		validation.Field(&r.Exercise, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.Reps, nonNeg),
		validation.Field(&r.Sets, nonNeg),
	)
}

type createLogReq struct{ logReq }

func (r *createLogReq) Validate() error {
	return validation.ValidateStruct(&r.logReq, r.logReq.rules(true)...)
}

type updateLogReq struct{ logReq }

func (r *updateLogReq) Validate() error {
	return validation.ValidateStruct(&r.logReq, r.logReq.rules(false)...)
}

// Create records an exercise for the caller.  A missing date means today.
func (h *LogHandler) Create(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	var req createLogReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if req.Date == nil || *req.Date == "" {
		today := h.now().UTC().Format(time.DateOnly)
		req.Date = &today
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	l, err := h.Logs.Create(ctx, &model.ExerciseLog{
		UserID:   uid,
		Date:     req.Date,
		Exercise: req.Exercise,
		Weight:   req.Weight,
		Reps:     *req.Reps,
		Sets:     *req.Sets,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "log": l})
}

// List returns the caller's logs, most recent date first.
func (h *LogHandler) List(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	logs, err := h.Logs.ListByOwner(ctx, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "logs": logs})
}

// Update applies the fields present in the body to one of the caller's logs.
func (h *LogHandler) Update(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return logNotFound(c)
	}
	var req updateLogReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	l, err := h.Logs.Update(ctx, id, uid, model.ExerciseLogPatch{
		Date:     req.Date,
		Exercise: req.Exercise,
		Weight:   req.Weight,
		Reps:     req.Reps,
		Sets:     req.Sets,
	})
	if errors.Is(err, repository.ErrLogNotFound) {
		return logNotFound(c)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Exercise log updated successfully", "log": l})
}

// Delete removes one of the caller's logs.
func (h *LogHandler) Delete(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return logNotFound(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Logs.Delete(ctx, id, uid); err != nil {
		if errors.Is(err, repository.ErrLogNotFound) {
			return logNotFound(c)
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Exercise log deleted successfully"})
}

func logNotFound(c echo.Context) error { return fail(c, http.StatusNotFound, "Exercise log not found") }
