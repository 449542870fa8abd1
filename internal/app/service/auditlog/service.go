package auditlog

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BijayX/iapguard/internal/models"
	"github.com/BijayX/iapguard/pkg/logctx"
	"github.com/BijayX/iapguard/pkg/tool"
)

// Service persists notification and verification audit logs.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists an audit log entry. Nil input is ignored;
// failures are logged, never surfaced — audit must not block the hot path.
func (s *Service) Save(ctx context.Context, entry *models.NotificationLog) {
	go func() {
		if entry == nil || s.db == nil {
			return
		}
		if entry.ID == "" {
			entry.ID = tool.GenerateUUIDV7()
		}
		if err := s.db.Save(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save notification log: %v", err)
		}
	}()
}

var Module = fx.Options(
	fx.Provide(New),
)
