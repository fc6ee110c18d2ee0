// Package events publishes onboarding domain events. Publishing is
// best-effort; callers log failures and carry on.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/harborfund/portal/pkg/slogx"
)

const (
	TypeInviteSent     = "investor.invite_sent"
	TypeAccountCreated = "investor.account_created"
)

const source = "harbor.onboarding"

// Event is the JSON envelope written to the bus.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Source     string         `json:"source"`
	OccurredAt time.Time      `json:"occurred_at"`
	FundID     string         `json:"fund_id"`
	Subject    string         `json:"subject"`
	Data       map[string]any `json:"data,omitempty"`
}

// New builds an event with a fresh UUID. Subject is the primary entity ID.
func New(typ, fundID, subject string, at time.Time, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Source:     source,
		OccurredAt: at.UTC(),
		FundID:     fundID,
		Subject:    subject,
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher writes events to the request logger. Used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, e Event) error {
	slogx.FromContext(ctx).Info("event published",
		slog.String("event_id", e.ID),
		slog.String("event_type", e.Type),
		slog.String("fund_id", e.FundID),
		slog.String("subject", e.Subject),
	)
	return nil
}

func (LogPublisher) Close() error { return nil }
