package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/BijayX/iapguard/internal/app/service/auditlog"
	"github.com/BijayX/iapguard/internal/app/service/reconciler"
	"github.com/BijayX/iapguard/internal/app/service/verification"
	"github.com/BijayX/iapguard/internal/models"
	"github.com/BijayX/iapguard/pkg/logctx"
	"github.com/BijayX/iapguard/pkg/types"
)

// ErrMalformed marks a notification missing the identity fields required for
// reconciliation. The ingress path logs and drops these, it never crashes.
var ErrMalformed = errors.New("malformed notification")

// Verifier resolves purchase tokens back to authoritative purchase state.
// *verification.Service satisfies it; tests inject fakes.
type Verifier interface {
	Verify(ctx context.Context, req verification.Request) (*verification.Result, error)
}

// Service normalizes platform webhooks into abstract events and reconciles
// them against stored subscription state.
type Service struct {
	rec      *reconciler.Service
	verifier Verifier
	audit    *auditlog.Service
	log      *zap.SugaredLogger
}

func NewService(rec *reconciler.Service, verifier *verification.Service, audit *auditlog.Service, log *zap.SugaredLogger) *Service {
	return &Service{rec: rec, verifier: verifier, audit: audit, log: log}
}

// Logger exposes the service logger for transport-level logging.
func (s *Service) Logger() *zap.SugaredLogger { return s.log }

// HandleApple ingests an App Store server notification (V1 or V2 body).
func (s *Service) HandleApple(ctx context.Context, body []byte) error {
	return s.handle(ctx, types.PlatformIOS, body, parseApple)
}

// HandleGoogle ingests a Play real-time developer notification, either the
// raw DeveloperNotification or its Pub/Sub push envelope.
func (s *Service) HandleGoogle(ctx context.Context, body []byte) error {
	return s.handle(ctx, types.PlatformAndroid, body, func(b []byte) (*Event, error) {
		return s.normalizeGoogle(ctx, b)
	})
}

func (s *Service) handle(ctx context.Context, platform types.Platform, body []byte, parse func([]byte) (*Event, error)) (resErr error) {
	traceID, _ := ctx.Value("traceID").(string)

	s.audit.Save(ctx, &models.NotificationLog{
		Platform:         string(platform),
		TraceID:          traceID,
		NotificationTime: time.Now(),
		Data:             datatypes.JSON(body),
		Status:           models.NotificationLogStatusReceived,
	})

	var ev *Event
	var rec *models.SubscriptionRecord
	defer func() {
		resMap := map[string]any{"event": ev, "record": rec}
		if resErr != nil {
			resMap["error"] = resErr.Error()
		}
		resBytes, _ := json.Marshal(resMap)
		status := models.NotificationLogStatusHandled
		if resErr != nil {
			status = models.NotificationLogStatusHandleFailed
		}
		var lineage string
		if ev != nil {
			lineage = ev.OriginalTransactionID
		}
		s.audit.Save(ctx, &models.NotificationLog{
			Platform:              string(platform),
			TraceID:               traceID,
			OriginalTransactionID: lineage,
			NotificationTime:      time.Now(),
			Data:                  datatypes.JSON(body),
			Result:                func() *datatypes.JSON { j := datatypes.JSON(resBytes); return &j }(),
			Status:                status,
		})
	}()

	ev, err := parse(body)
	if err != nil {
		if errors.Is(err, ErrMalformed) {
			// Dropped, acknowledged: platforms redeliver on non-2xx and a
			// malformed body will never get better.
			logctx.FromCtx(ctx, s.log).Warnw("notification dropped", "error", err.Error())
			return nil
		}
		resErr = err
		return resErr
	}
	if ev == nil {
		return nil
	}

	rec, resErr = s.rec.Apply(ctx, toCandidate(ev))
	if resErr != nil {
		logctx.FromCtx(ctx, s.log).Errorw("failed to reconcile notification",
			"kind", ev.Kind,
			"original_transaction_id", ev.OriginalTransactionID,
			"error", resErr.Error(),
		)
		return resErr
	}

	logctx.FromCtx(ctx, s.log).Infow("notification reconciled",
		"kind", ev.Kind,
		"original_transaction_id", ev.OriginalTransactionID,
		"status", rec.Status,
	)
	return nil
}
