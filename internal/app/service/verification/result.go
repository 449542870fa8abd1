package verification

import (
	"encoding/json"
	"time"

	"github.com/BijayX/iapguard/pkg/types"
)

// Result is the normalized, platform-agnostic verification outcome. It is
// immutable once produced; the reconciler reduces it to a candidate update.
// Invariant: Valid == false implies Status == unknown.
type Result struct {
	Valid    bool                     `json:"valid"`
	Status   types.SubscriptionStatus `json:"status"`
	Platform types.Platform           `json:"platform"`

	ProductID     string `json:"product_id"`
	TransactionID string `json:"transaction_id"`
	// OriginalTransactionID is the platform-stable identity of the purchase
	// lineage, distinct from a single renewal's transaction id.
	OriginalTransactionID string `json:"original_transaction_id"`

	// ExpiresAt is nil for non-subscription purchases.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// RawData is the full upstream response, retained for audit. Never
	// parsed downstream.
	RawData json.RawMessage `json:"raw_data,omitempty"`
}

func invalidResult(platform types.Platform, raw json.RawMessage) *Result {
	return &Result{
		Valid:    false,
		Status:   types.SubscriptionStatusUnknown,
		Platform: platform,
		RawData:  raw,
	}
}

// statusFromExpiry derives active/expired from an expiration timestamp. A nil
// expiry means a non-subscription purchase, treated as perpetually valid.
func statusFromExpiry(expiresAt *time.Time, now time.Time) types.SubscriptionStatus {
	if expiresAt == nil || expiresAt.After(now) {
		return types.SubscriptionStatusActive
	}
	return types.SubscriptionStatusExpired
}
