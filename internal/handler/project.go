package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dewhitt/dashboard-api/internal/model"
	"github.com/dewhitt/dashboard-api/internal/repository"
)

// ProjectReader is the read side of repository.ProjectRepo.
type ProjectReader interface {
	GetByOwner(ctx context.Context, userID uint64) (*model.Project, error)
}

// ProjectHandler serves the caller's dashboard project.
type ProjectHandler struct {
	Projects ProjectReader
}

func NewProjectHandler(r ProjectReader) *ProjectHandler { return &ProjectHandler{Projects: r} }

// Mine returns the caller's project, or 404 until an admin creates one.
func (h *ProjectHandler) Mine(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Projects.GetByOwner(ctx, uid)
	if errors.Is(err, repository.ErrProjectNotFound) {
		return fail(c, http.StatusNotFound, "Project not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "project": p})
}
