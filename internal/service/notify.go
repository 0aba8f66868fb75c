package service

import (
	"context"
	"sync"
	"time"

	"github.com/dewhitt/dashboard-api/internal/logging"
	"github.com/dewhitt/dashboard-api/internal/queue"
)

// Notifier delivers the verification link to a newly registered user.
// queue.Publisher, mail.Sender and mail.LogSender implement it.
type Notifier interface {
	SendVerification(ctx context.Context, ev queue.VerificationRequested) error
}

// dispatcher runs notifications off the request path.  Each send gets its
// own deadline and a context detached from the request, so a client
// disconnect does not abort it and a slow relay cannot hold it forever.
type dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	log      logging.Logger
	wg       sync.WaitGroup
}

func (d *dispatcher) dispatch(ctx context.Context, ev queue.VerificationRequested) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		if err := d.notifier.SendVerification(sendCtx, ev); err != nil {
			d.log.Error(sendCtx, "verification notification failed", "user_id", ev.UserID, "err", err)
			return
		}
		d.log.Debug(sendCtx, "verification notification sent", "user_id", ev.UserID)
	}()
}

// wait blocks until in-flight notifications finish.
func (d *dispatcher) wait() { d.wg.Wait() }
