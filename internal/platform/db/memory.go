package db

import (
	"context"
	"sync"
	"time"

	"github.com/BijayX/iapguard/internal/models"
	"github.com/BijayX/iapguard/pkg/tool"
)

// MemoryStore is an in-process record store with per-lineage mutual
// exclusion. It backs tests and credential-less local runs; the durable
// implementation is GormStore.
type MemoryStore struct {
	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	records map[string]models.SubscriptionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locks:   make(map[string]*sync.Mutex),
		records: make(map[string]models.SubscriptionRecord),
	}
}

func (s *MemoryStore) lineageLock(originalTransactionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[originalTransactionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[originalTransactionID] = l
	}
	return l
}

func (s *MemoryStore) FindByLineage(ctx context.Context, originalTransactionID string) (*models.SubscriptionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[originalTransactionID]
	if !ok {
		return nil, nil
	}
	cp := rec
	return &cp, nil
}

func (s *MemoryStore) UpsertByLineage(ctx context.Context, originalTransactionID string, mutate func(*models.SubscriptionRecord) (*models.SubscriptionRecord, error)) (*models.SubscriptionRecord, error) {
	l := s.lineageLock(originalTransactionID)
	l.Lock()
	defer l.Unlock()

	var existing *models.SubscriptionRecord
	s.mu.Lock()
	if rec, ok := s.records[originalTransactionID]; ok {
		cp := rec
		existing = &cp
	}
	s.mu.Unlock()

	next, err := mutate(existing)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return existing, nil
	}

	now := time.Now()
	if next.ID == "" {
		next.ID = tool.GenerateUUIDV7()
	}
	if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}
	next.UpdatedAt = now

	s.mu.Lock()
	s.records[originalTransactionID] = *next
	s.mu.Unlock()

	cp := *next
	return &cp, nil
}
