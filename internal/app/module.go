package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/BijayX/iapguard/internal/app/api/server"
	"github.com/BijayX/iapguard/internal/app/service/auditlog"
	"github.com/BijayX/iapguard/internal/app/service/purchase"
	"github.com/BijayX/iapguard/internal/app/service/reconciler"
	"github.com/BijayX/iapguard/internal/app/service/records"
	"github.com/BijayX/iapguard/internal/app/service/statistics"
	"github.com/BijayX/iapguard/internal/app/service/verification"
	"github.com/BijayX/iapguard/internal/app/service/webhook"
	"github.com/BijayX/iapguard/internal/platform/db"
	"github.com/BijayX/iapguard/pkg/config"
	"github.com/BijayX/iapguard/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	server.Module,
	verification.Module,
	reconciler.Module,
	auditlog.Module,
	webhook.Module,
	purchase.Module,
	records.Module,
	statistics.Module,
	fx.Provide(func(s *db.GormStore) reconciler.Store { return s }),
)
