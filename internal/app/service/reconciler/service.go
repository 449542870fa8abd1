package reconciler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BijayX/iapguard/internal/models"
	"github.com/BijayX/iapguard/pkg/logctx"
	"github.com/BijayX/iapguard/pkg/types"
)

// Service is the sole writer of subscription records. It merges verification
// outcomes and webhook events into the persisted state, enforcing the
// transition and idempotency rules that keep out-of-order and duplicated
// deliveries from regressing a lineage.
type Service struct {
	store Store
	log   *zap.SugaredLogger
}

func NewService(store Store, log *zap.SugaredLogger) *Service {
	return &Service{store: store, log: log}
}

// GetByLineage reads the current record for a lineage; nil when none exists.
func (s *Service) GetByLineage(ctx context.Context, originalTransactionID string) (*models.SubscriptionRecord, error) {
	return s.store.FindByLineage(ctx, originalTransactionID)
}

// Apply merges one candidate into the stored record for its lineage.
//
// Rules, in order:
//   - no record yet: insert one with the candidate's transaction id, status
//     and expiry (audit-only candidates create a status-unknown record);
//   - audit-only: refresh raw data, nothing else;
//   - candidate expiry older than stored and candidate not cancelled:
//     no-op — an out-of-order renewal must not regress a later one. The call
//     still succeeds and returns the stored record;
//   - otherwise: update status, expiry, transaction id and raw data in place.
//
// A cancelled candidate always applies: cancellation is a terminal signal
// about intent, not a timestamp claim. Applying the same candidate twice
// collapses to no change. The absence of a record is never an error; only
// storage failures propagate.
func (s *Service) Apply(ctx context.Context, c Candidate) (*models.SubscriptionRecord, error) {
	if c.OriginalTransactionID == "" {
		return nil, ErrMissingLineage
	}

	rec, err := s.store.UpsertByLineage(ctx, c.OriginalTransactionID, func(existing *models.SubscriptionRecord) (*models.SubscriptionRecord, error) {
		if existing == nil {
			return s.newRecord(c), nil
		}

		if c.AuditOnly {
			existing.RawData = c.RawData
			return existing, nil
		}

		if regresses(existing, c) {
			logctx.FromCtx(ctx, s.log).Infow("stale update ignored",
				"original_transaction_id", c.OriginalTransactionID,
				"candidate_expires_at", c.ExpiresAt,
				"stored_expires_at", existing.ExpiresAt,
			)
			return nil, nil
		}

		existing.Status = c.Status
		existing.ExpiresAt = c.ExpiresAt
		if c.TransactionID != "" {
			existing.TransactionID = c.TransactionID
		}
		if c.UserID != "" {
			existing.UserID = c.UserID
		}
		if c.ProductID != "" {
			existing.ProductID = c.ProductID
		}
		if len(c.RawData) > 0 {
			existing.RawData = c.RawData
		}
		return existing, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile lineage %s: %w", c.OriginalTransactionID, err)
	}
	return rec, nil
}

func (s *Service) newRecord(c Candidate) *models.SubscriptionRecord {
	status := c.Status
	var expiresAt = c.ExpiresAt
	if c.AuditOnly {
		status = types.SubscriptionStatusUnknown
		expiresAt = nil
	}
	return &models.SubscriptionRecord{
		UserID:                c.UserID,
		Platform:              c.Platform,
		ProductID:             c.ProductID,
		TransactionID:         c.TransactionID,
		OriginalTransactionID: c.OriginalTransactionID,
		Status:                status,
		ExpiresAt:             expiresAt,
		RawData:               c.RawData,
	}
}

// regresses reports whether applying the candidate would move the record
// backward past a later-dated update already applied.
func regresses(rec *models.SubscriptionRecord, c Candidate) bool {
	if c.Status == types.SubscriptionStatusCancelled {
		return false
	}
	if c.ExpiresAt == nil || rec.ExpiresAt == nil {
		return false
	}
	return c.ExpiresAt.Before(*rec.ExpiresAt)
}
