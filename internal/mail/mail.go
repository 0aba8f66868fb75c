// Package mail renders and delivers the verification email.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"

	gomail "github.com/wneessen/go-mail"

	"github.com/dewhitt/dashboard-api/internal/logging"
	"github.com/dewhitt/dashboard-api/internal/queue"
)

const verifySubject = "Verify your email for Dewhitt App"

var verifyTmpl = template.Must(template.New("verify").Parse(`<h3>Hello {{.Name}},</h3>
<p>Please verify your email by clicking the link below:</p>
<p><a href="{{.VerifyURL}}">Verify Email</a></p>
`))

// Render returns the subject and HTML body of the verification email.
func Render(ev queue.VerificationRequested) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := verifyTmpl.Execute(&buf, ev); err != nil {
		return "", "", err
	}
	return verifySubject, buf.String(), nil
}

// sendFunc matches (*gomail.Client).DialAndSendWithContext.
type sendFunc func(ctx context.Context, msgs ...*gomail.Msg) error

// Sender delivers mail through an SMTP relay.
type Sender struct {
	from string
	send sendFunc
}

// NewSender returns a Sender for host:port.  PLAIN auth is only used when
// user is set; STARTTLS is used when the relay offers it.
func NewSender(host, port, user, pass, from string) (*Sender, error) {
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("smtp port %q: %w", port, err)
	}
	opts := []gomail.Option{
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithPort(p),
	}
	if user != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(user),
			gomail.WithPassword(pass),
		)
	}
	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &Sender{from: from, send: client.DialAndSendWithContext}, nil
}

// SendVerification renders and sends the verification email for ev.  ctx
// bounds the dial and the SMTP conversation.
func (s *Sender) SendVerification(ctx context.Context, ev queue.VerificationRequested) error {
	msg, err := s.message(ev)
	if err != nil {
		return err
	}
	if err := s.send(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *Sender) message(ev queue.VerificationRequested) (*gomail.Msg, error) {
	subject, html, err := Render(ev)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := m.To(ev.Email); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(gomail.TypeTextHTML, html)
	return m, nil
}

// LogSender writes the verification link to the log instead of sending
// mail.  It is used in development and when no relay is configured.
type LogSender struct {
	Log logging.Logger
}

func (l LogSender) SendVerification(ctx context.Context, ev queue.VerificationRequested) error {
	l.Log.Info(ctx, "verification email (not sent)", "to", ev.Email, "verify_url", ev.VerifyURL)
	return nil
}
