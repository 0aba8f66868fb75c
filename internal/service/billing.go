package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v76"

	"github.com/dewhitt/dashboard-api/internal/logging"
	"github.com/dewhitt/dashboard-api/internal/model"
	"github.com/dewhitt/dashboard-api/internal/repository"
)

// ErrUnprocessableEvent marks a signed event that cannot be applied, e.g. a
// checkout without a user reference.  Retrying will not help, so the
// webhook acknowledges it.
var ErrUnprocessableEvent = errors.New("unprocessable billing event")

// BillingStore is the part of the credential store billing events mutate.
type BillingStore interface {
	SetBillingCustomer(ctx context.Context, userID uint64, customerID string, upd model.SubscriptionUpdate) error
	UpdateSubscriptionByCustomer(ctx context.Context, customerID string, upd model.SubscriptionUpdate) error
}

// BillingService applies verified billing provider events to user records.
type BillingService struct {
	users BillingStore
	log   logging.Logger
}

func NewBillingService(users BillingStore, log logging.Logger) *BillingService {
	return &BillingService{users: users, log: log}
}

// Apply handles one event.  Event types it does not know are ignored.
func (s *BillingService) Apply(ctx context.Context, ev stripe.Event) error {
	if ev.Data == nil {
		return fmt.Errorf("%w: event %s has no data", ErrUnprocessableEvent, ev.ID)
	}
	log := s.log.With("event_id", ev.ID, "event_type", string(ev.Type))

	var err error
	switch ev.Type {
	case "checkout.session.completed":
		err = s.checkoutCompleted(ctx, ev.Data.Raw)
	case "customer.subscription.created", "customer.subscription.updated":
		err = s.subscriptionChanged(ctx, ev.Data.Raw, false)
	case "customer.subscription.deleted":
		err = s.subscriptionChanged(ctx, ev.Data.Raw, true)
	case "invoice.payment_failed":
		err = s.paymentFailed(ctx, ev.Data.Raw)
	default:
		log.Debug(ctx, "billing event ignored")
		return nil
	}
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		err = fmt.Errorf("%w: no matching user", ErrUnprocessableEvent)
	case errors.Is(err, repository.ErrCustomerLinked):
		err = fmt.Errorf("%w: customer linked to another user", ErrUnprocessableEvent)
	}
	if err != nil {
		return err
	}
	log.Info(ctx, "billing event applied")
	return nil
}

func (s *BillingService) checkoutCompleted(ctx context.Context, raw json.RawMessage) error {
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(raw, &cs); err != nil {
		return fmt.Errorf("%w: %v", ErrUnprocessableEvent, err)
	}
	userID, err := strconv.ParseUint(cs.ClientReferenceID, 10, 64)
	if err != nil || userID == 0 {
		return fmt.Errorf("%w: client_reference_id %q", ErrUnprocessableEvent, cs.ClientReferenceID)
	}
	if cs.Customer == nil || cs.Customer.ID == "" {
		return fmt.Errorf("%w: checkout session without customer", ErrUnprocessableEvent)
	}
	return s.users.SetBillingCustomer(ctx, userID, cs.Customer.ID, model.SubscriptionUpdate{
		Status:   model.SubscriptionActive,
		PlanTier: model.PlanPremium,
	})
}

func (s *BillingService) subscriptionChanged(ctx context.Context, raw json.RawMessage, deleted bool) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return fmt.Errorf("%w: %v", ErrUnprocessableEvent, err)
	}
	if sub.Customer == nil || sub.Customer.ID == "" {
		return fmt.Errorf("%w: subscription without customer", ErrUnprocessableEvent)
	}
	status := SubscriptionStatus(string(sub.Status))
	if deleted {
		status = model.SubscriptionCanceled
	}
	upd := model.SubscriptionUpdate{Status: status, PlanTier: PlanFor(status)}
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		upd.PeriodEnd = &t
	}
	return s.users.UpdateSubscriptionByCustomer(ctx, sub.Customer.ID, upd)
}

func (s *BillingService) paymentFailed(ctx context.Context, raw json.RawMessage) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return fmt.Errorf("%w: %v", ErrUnprocessableEvent, err)
	}
	if inv.Customer == nil || inv.Customer.ID == "" {
		return fmt.Errorf("%w: invoice without customer", ErrUnprocessableEvent)
	}
	return s.users.UpdateSubscriptionByCustomer(ctx, inv.Customer.ID, model.SubscriptionUpdate{
		Status:   model.SubscriptionPastDue,
		PlanTier: model.PlanPremium,
	})
}

// SubscriptionStatus maps a provider subscription status onto ours.
func SubscriptionStatus(provider string) string {
	switch provider {
	case "active", "trialing":
		return model.SubscriptionActive
	case "past_due", "unpaid":
		return model.SubscriptionPastDue
	case "canceled", "incomplete_expired":
		return model.SubscriptionCanceled
	default:
		return model.SubscriptionInactive
	}
}

// PlanFor returns the tier a subscription status entitles.  Past-due
// accounts keep premium while the provider retries payment.
func PlanFor(status string) string {
	if status == model.SubscriptionActive || status == model.SubscriptionPastDue {
		return model.PlanPremium
	}
	return model.PlanFree
}
