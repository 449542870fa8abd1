package webhook

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/BijayX/iapguard/internal/app/service/reconciler"
	"github.com/BijayX/iapguard/pkg/types"
)

// EventKind is the abstract notification vocabulary both platforms map onto.
type EventKind string

const (
	EventPurchased     EventKind = "purchased"
	EventRenewed       EventKind = "renewed"
	EventRecovered     EventKind = "recovered"
	EventCancelled     EventKind = "cancelled"
	EventExpired       EventKind = "expired"
	EventFailedRenewal EventKind = "failedRenewal"
	EventUnknown       EventKind = "unknown"
)

// Event is the normalized form of a platform notification. It is transient:
// produced by a parser, consumed once by the reconciler, never persisted
// directly.
type Event struct {
	Kind     EventKind
	Platform types.Platform

	OriginalTransactionID string
	TransactionID         string
	ProductID             string
	ExpiresAt             *time.Time

	RawData json.RawMessage
}

// statusForKind maps the event vocabulary onto record status. Recovery and
// renewal both re-establish the entitlement; a failed renewal lapses it (the
// expiry ordering rule keeps a still-running period from being cut short).
func statusForKind(kind EventKind) types.SubscriptionStatus {
	switch kind {
	case EventPurchased, EventRenewed, EventRecovered:
		return types.SubscriptionStatusActive
	case EventCancelled:
		return types.SubscriptionStatusCancelled
	case EventExpired, EventFailedRenewal:
		return types.SubscriptionStatusExpired
	default:
		return types.SubscriptionStatusUnknown
	}
}

// toCandidate reduces an event to the reconciler's input tuple. Unknown kinds
// become audit-only: stored for diagnosis, never a state transition.
func toCandidate(ev *Event) reconciler.Candidate {
	return reconciler.Candidate{
		Platform:              ev.Platform,
		ProductID:             ev.ProductID,
		TransactionID:         ev.TransactionID,
		OriginalTransactionID: ev.OriginalTransactionID,
		Status:                statusForKind(ev.Kind),
		ExpiresAt:             ev.ExpiresAt,
		RawData:               datatypes.JSON(ev.RawData),
		AuditOnly:             ev.Kind == EventUnknown,
	}
}
