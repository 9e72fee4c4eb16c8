package events

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/complaint_desk/pkg/logging"
)

type Type string

const (
	UserLoggedIn    Type = "user_logged_in"
	LoginFailed     Type = "login_failed"
	UserRegistered  Type = "user_registered"
	TokenRevoked    Type = "token_revoked"
	SessionsRevoked Type = "sessions_revoked"
	UserEnabled     Type = "user_enabled"
	UserDisabled    Type = "user_disabled"
)

// Event is one entry of the authentication audit trail. It never carries
// token strings or secrets.
type Event struct {
	Type     Type      `json:"type"`
	UserID   uint      `json:"user_id,omitempty"`
	Subject  string    `json:"subject,omitempty"`
	Username string    `json:"username,omitempty"`
	Actor    string    `json:"actor,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Emit publishes e and logs a failure instead of returning it. The audit
// trail never decides the outcome of a request.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if err := p.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("publish event failed", "event", e.Type, "error", err)
	}
}
