// Package subscription keeps local membership state in sync with the payment
// processor's own subscription lifecycle. The processor is the driver: rows
// are created and updated from its webhooks, keyed by its external reference.
package subscription

import (
	"strings"
	"time"
)

type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusPastDue    Status = "PAST_DUE"
	StatusCancelled  Status = "CANCELLED"
	StatusIncomplete Status = "INCOMPLETE"
)

// FromProvider maps the processor's status vocabulary onto the local one.
// Unknown values pass through uppercased so nothing is silently collapsed.
func FromProvider(s string) Status {
	switch strings.ToLower(s) {
	case "active", "trialing":
		return StatusActive
	case "past_due":
		return StatusPastDue
	case "canceled", "cancelled", "unpaid":
		return StatusCancelled
	case "incomplete", "incomplete_expired":
		return StatusIncomplete
	default:
		return Status(strings.ToUpper(s))
	}
}

type Subscription struct {
	ID                 string
	UserID             string
	PlanID             string
	ExternalRef        string
	Status             Status
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelledAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Active reports whether the subscription should grant membership at t.
// At most one row per user is expected to pass this at any time; that is a
// query-time convention, not a schema constraint.
func (s Subscription) Active(t time.Time) bool {
	return s.Status == StatusActive && (s.CurrentPeriodEnd.IsZero() || s.CurrentPeriodEnd.After(t))
}

type SignalKind string

const (
	SignalCreated SignalKind = "created"
	SignalUpdated SignalKind = "updated"
	SignalDeleted SignalKind = "deleted"
)

// Signal is one provider-driven lifecycle notification, already verified and
// decoded by the webhook gateway.
type Signal struct {
	Kind           SignalKind
	ExternalRef    string
	ProviderStatus string
	PlanRef        string
	UserID         string // from session metadata, set on created
	PlanID         string
	PeriodStart    time.Time
	PeriodEnd      time.Time
}
