package reconciler

import (
	"context"

	"github.com/BijayX/iapguard/internal/models"
)

// Store is the durable record store contract. UpsertByLineage must execute
// the mutator atomically with respect to other calls sharing the same
// originalTransactionID, so the reconciler's read-compare-write is safe under
// concurrent verifications and webhooks for one lineage.
//
// The mutator receives nil when no record exists and returns the record to
// persist; returning nil means leave storage untouched.
type Store interface {
	FindByLineage(ctx context.Context, originalTransactionID string) (*models.SubscriptionRecord, error)
	UpsertByLineage(ctx context.Context, originalTransactionID string, mutate func(*models.SubscriptionRecord) (*models.SubscriptionRecord, error)) (*models.SubscriptionRecord, error)
}
