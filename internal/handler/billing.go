package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/dewhitt/dashboard-api/internal/logging"
	"github.com/dewhitt/dashboard-api/internal/service"
)

// maxWebhookBody caps the payload read from the billing provider.
const maxWebhookBody = 64 << 10

// EventApplier applies a verified billing event.
type EventApplier interface {
	Apply(ctx context.Context, ev stripe.Event) error
}

// BillingHandler receives billing provider webhooks.
type BillingHandler struct {
	Billing EventApplier
	Secret  string
	Log     logging.Logger
}

func NewBillingHandler(b EventApplier, secret string, log logging.Logger) *BillingHandler {
	return &BillingHandler{Billing: b, Secret: secret, Log: log}
}

// Webhook verifies the Stripe-Signature header and applies the event.  The
// payload is trusted only after the signature checks out.  Events that can
// never be applied are acknowledged so the provider stops retrying them;
// store failures answer 500 so it retries.
func (h *BillingHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Unreadable body")
	}
	if len(payload) > maxWebhookBody {
		return fail(c, http.StatusRequestEntityTooLarge, "Payload too large")
	}

	ev, err := webhook.ConstructEventWithOptions(payload, c.Request().Header.Get("Stripe-Signature"), h.Secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.Log.Warn(ctx, "billing webhook rejected", "err", err, "ip", c.RealIP())
		return fail(c, http.StatusBadRequest, "Invalid signature")
	}

	if err := h.Billing.Apply(ctx, ev); err != nil {
		if errors.Is(err, service.ErrUnprocessableEvent) {
			h.Log.Warn(ctx, "billing event skipped", "event_id", ev.ID, "event_type", string(ev.Type), "err", err)
			return c.JSON(http.StatusOK, echo.Map{"received": true})
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
