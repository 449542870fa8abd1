package purchase

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/BijayX/iapguard/internal/app/service/auditlog"
	"github.com/BijayX/iapguard/internal/app/service/reconciler"
	"github.com/BijayX/iapguard/internal/app/service/verification"
	"github.com/BijayX/iapguard/internal/models"
	"github.com/BijayX/iapguard/pkg/logctx"
)

// Service drives the client-initiated verification flow: check the receipt
// with the platform, then fold the outcome into stored subscription state.
type Service struct {
	verifier *verification.Service
	rec      *reconciler.Service
	audit    *auditlog.Service
	log      *zap.SugaredLogger
}

func NewService(verifier *verification.Service, rec *reconciler.Service, audit *auditlog.Service, log *zap.SugaredLogger) *Service {
	return &Service{verifier: verifier, rec: rec, audit: audit, log: log}
}

// Outcome is what a verify call produces: the platform verdict plus the
// stored record when the verdict was valid enough to persist.
type Outcome struct {
	Result *verification.Result       `json:"result"`
	Record *models.SubscriptionRecord `json:"record,omitempty"`
}

// VerifyAndApply verifies the purchase and, when the platform accepted it,
// reconciles it under the purchase lineage. Invalid receipts are returned to
// the caller without touching stored state.
func (s *Service) VerifyAndApply(ctx context.Context, userID string, req verification.Request) (*Outcome, error) {
	res, err := s.verifier.Verify(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Result: res}
	if !res.Valid {
		logctx.FromCtx(ctx, s.log).Infow("purchase rejected by platform",
			"platform", req.Platform,
			"user_id", userID,
		)
		s.saveAudit(ctx, userID, req, out, models.NotificationLogStatusHandled)
		return out, nil
	}

	rec, err := s.rec.Apply(ctx, reconciler.FromResult(userID, res))
	if err != nil {
		s.saveAudit(ctx, userID, req, out, models.NotificationLogStatusHandleFailed)
		return nil, err
	}
	out.Record = rec

	logctx.FromCtx(ctx, s.log).Infow("purchase verified",
		"platform", res.Platform,
		"user_id", userID,
		"original_transaction_id", res.OriginalTransactionID,
		"status", rec.Status,
	)
	s.saveAudit(ctx, userID, req, out, models.NotificationLogStatusHandled)
	return out, nil
}

func (s *Service) saveAudit(ctx context.Context, userID string, req verification.Request, out *Outcome, status models.NotificationLogStatus) {
	traceID, _ := ctx.Value("traceID").(string)
	reqBytes, _ := json.Marshal(map[string]any{"user_id": userID, "platform": req.Platform})
	resBytes, _ := json.Marshal(out)
	resJSON := datatypes.JSON(resBytes)

	var lineage string
	if out.Result != nil {
		lineage = out.Result.OriginalTransactionID
	}
	s.audit.Save(ctx, &models.NotificationLog{
		Platform:              string(req.Platform),
		TraceID:               traceID,
		OriginalTransactionID: lineage,
		NotificationTime:      time.Now(),
		Data:                  datatypes.JSON(reqBytes),
		Result:                &resJSON,
		Status:                status,
	})
}
