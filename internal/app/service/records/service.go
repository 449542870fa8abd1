package records

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BijayX/iapguard/internal/app/service/reconciler"
	"github.com/BijayX/iapguard/internal/models"
	"github.com/BijayX/iapguard/pkg/types"
)

// Service answers read queries over stored subscription records. Writes go
// through the reconciler; this side never mutates.
type Service struct {
	db    *gorm.DB
	store reconciler.Store
	log   *zap.SugaredLogger
}

func NewService(db *gorm.DB, store reconciler.Store, log *zap.SugaredLogger) *Service {
	return &Service{db: db, store: store, log: log}
}

// GetByLineage returns the record keyed by original transaction id, or
// (nil, nil) when none exists.
func (s *Service) GetByLineage(ctx context.Context, originalTransactionID string) (*models.SubscriptionRecord, error) {
	return s.store.FindByLineage(ctx, originalTransactionID)
}

type ScanRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanResponse struct {
	Items []*models.SubscriptionRecord `json:"items"`
	Total int64                        `json:"total"`
}

// filtersAnd combines multiple CommonFilter into a single clause.Expression
type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.filters))
	for _, f := range w.filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

// Scan implements paginated admin listing with filters.
func (s *Service) Scan(ctx context.Context, req *ScanRequest) (*ScanResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.SubscriptionRecord{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscription records: %w", err)
	}

	var rows []*models.SubscriptionRecord

	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscription records: %w", err)
	}

	return &ScanResponse{Items: rows, Total: total}, nil
}
