package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BijayX/iapguard/internal/models"
	"github.com/BijayX/iapguard/pkg/tool"
)

// GormStore persists subscription records keyed by purchase lineage. The
// upsert runs inside a transaction holding a row lock on the lineage, so the
// read-compare-write sequence of the reconciler is atomic across service
// instances.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindByLineage(ctx context.Context, originalTransactionID string) (*models.SubscriptionRecord, error) {
	var rec models.SubscriptionRecord
	err := s.db.WithContext(ctx).
		Where("original_transaction_id = ?", originalTransactionID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load subscription record: %w", err)
	}
	return &rec, nil
}

// UpsertByLineage locks the lineage row (when present), hands the current
// record to the mutator and saves whatever it returns. Two concurrent inserts
// of a new lineage are serialized by the unique index on
// original_transaction_id; the loser surfaces a storage error for the caller
// to retry.
func (s *GormStore) UpsertByLineage(ctx context.Context, originalTransactionID string, mutate func(*models.SubscriptionRecord) (*models.SubscriptionRecord, error)) (*models.SubscriptionRecord, error) {
	var out *models.SubscriptionRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.SubscriptionRecord
		var existing *models.SubscriptionRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("original_transaction_id = ?", originalTransactionID).
			First(&rec).Error
		if err == nil {
			existing = &rec
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to lock subscription record: %w", err)
		}

		next, err := mutate(existing)
		if err != nil {
			return err
		}
		if next == nil {
			out = existing
			return nil
		}
		if next.ID == "" {
			next.ID = tool.GenerateUUIDV7()
		}

		if err := tx.Save(next).Error; err != nil {
			return fmt.Errorf("failed to save subscription record: %w", err)
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
