package handler

import (
	"context"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"github.com/dewhitt/dashboard-api/internal/logging"
	"github.com/dewhitt/dashboard-api/internal/model"
	"github.com/dewhitt/dashboard-api/internal/repository"
)

// ClientDirectory is the admin view over users.
type ClientDirectory interface {
	ListMembersWithProjects(ctx context.Context) ([]model.Client, error)
	Delete(ctx context.Context, id uint64) error
}

// ProjectWriter creates or updates a member's project.
type ProjectWriter interface {
	Upsert(ctx context.Context, userID uint64, p model.ProjectPatch) (*model.Project, error)
}

// AdminHandler serves the admin-only routes.  The router places it behind
// JWTAuth and RequireRole(model.RoleAdmin).
type AdminHandler struct {
	Clients  ClientDirectory
	Projects ProjectWriter
	Log      logging.Logger
}

func NewAdminHandler(c ClientDirectory, p ProjectWriter, log logging.Logger) *AdminHandler {
	return &AdminHandler{Clients: c, Projects: p, Log: log}
}

type projectReq struct {
	Name               *string `json:"name"`
	Status             *string `json:"status"`
	Progress           *int    `json:"progress"`
	NextInvoiceDate    *string `json:"next_invoice_date"`
	SubscriptionAmount *int    `json:"subscription_amount"`
}

func (r *projectReq) trim() { trimSpace(r.Name, r.Status, r.NextInvoiceDate) }

func (r projectReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.Status, validation.NilOrNotEmpty, validation.Length(1, 64)),
		validation.Field(&r.Progress, validation.Min(0), validation.Max(100)),
		validation.Field(&r.NextInvoiceDate, validation.NilOrNotEmpty, validation.Length(1, 32)),
		validation.Field(&r.SubscriptionAmount, validation.Min(0)),
	)
}

// ListClients lists every member with their project.
func (h *AdminHandler) ListClients(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	clients, err := h.Clients.ListMembersWithProjects(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "clients": clients})
}

// UpsertProject creates the member's project if missing and applies the
// fields present in the body.
func (h *AdminHandler) UpsertProject(c echo.Context) error {
	userID, ok := pathID(c, "userId")
	if !ok {
		return fail(c, http.StatusNotFound, "User not found")
	}
	var req projectReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Projects.Upsert(ctx, userID, model.ProjectPatch{
		Name:               req.Name,
		Status:             req.Status,
		Progress:           req.Progress,
		NextInvoiceDate:    req.NextInvoiceDate,
		SubscriptionAmount: req.SubscriptionAmount,
	})
	if errors.Is(err, repository.ErrUserNotFound) {
		return fail(c, http.StatusNotFound, "User not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "project": p})
}

// DeleteUser removes a user together with everything they own.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusNotFound, "User not found")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Clients.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		return err
	}
	adminID, _ := callerID(c)
	h.Log.Info(ctx, "user deleted by admin", "user_id", id, "admin_id", adminID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "User deleted"})
}
