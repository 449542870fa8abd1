package db

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BijayX/iapguard/internal/models"
)

func TestMemoryStore_FindMissing(t *testing.T) {
	s := NewMemoryStore()
	rec, err := s.FindByLineage(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestMemoryStore_UpsertAssignsIdentity(t *testing.T) {
	s := NewMemoryStore()

	rec, err := s.UpsertByLineage(context.Background(), "o1", func(existing *models.SubscriptionRecord) (*models.SubscriptionRecord, error) {
		require.Nil(t, existing)
		return &models.SubscriptionRecord{OriginalTransactionID: "o1"}, nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	require.False(t, rec.CreatedAt.IsZero())
	require.False(t, rec.UpdatedAt.IsZero())
}

func TestMemoryStore_NilFromMutatorLeavesStateUntouched(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.UpsertByLineage(context.Background(), "o1", func(_ *models.SubscriptionRecord) (*models.SubscriptionRecord, error) {
		return &models.SubscriptionRecord{OriginalTransactionID: "o1", TransactionID: "t1"}, nil
	})
	require.NoError(t, err)

	rec, err := s.UpsertByLineage(context.Background(), "o1", func(existing *models.SubscriptionRecord) (*models.SubscriptionRecord, error) {
		require.NotNil(t, existing)
		return nil, nil
	})
	require.NoError(t, err)
	require.Equal(t, "t1", rec.TransactionID)
}

func TestMemoryStore_CopiesOut(t *testing.T) {
	s := NewMemoryStore()

	rec, err := s.UpsertByLineage(context.Background(), "o1", func(_ *models.SubscriptionRecord) (*models.SubscriptionRecord, error) {
		return &models.SubscriptionRecord{OriginalTransactionID: "o1", TransactionID: "t1"}, nil
	})
	require.NoError(t, err)

	rec.TransactionID = "mutated"
	stored, err := s.FindByLineage(context.Background(), "o1")
	require.NoError(t, err)
	require.Equal(t, "t1", stored.TransactionID)
}

func TestMemoryStore_ConcurrentUpserts(t *testing.T) {
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpsertByLineage(context.Background(), "o1", func(existing *models.SubscriptionRecord) (*models.SubscriptionRecord, error) {
				if existing == nil {
					existing = &models.SubscriptionRecord{OriginalTransactionID: "o1"}
				}
				existing.UserID = "user-1"
				return existing, nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := s.FindByLineage(context.Background(), "o1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "user-1", rec.UserID)
}
