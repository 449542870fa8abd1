package webhook

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/awa/go-iap/playstore"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BijayX/iapguard/internal/app/service/auditlog"
	"github.com/BijayX/iapguard/internal/app/service/reconciler"
	"github.com/BijayX/iapguard/internal/app/service/verification"
	"github.com/BijayX/iapguard/internal/platform/db"
	"github.com/BijayX/iapguard/pkg/types"
)

func newTestHandleService(v Verifier) (*Service, *reconciler.Service) {
	log := zap.NewNop().Sugar()
	rec := reconciler.NewService(db.NewMemoryStore(), log)
	return &Service{
		rec:      rec,
		verifier: v,
		audit:    auditlog.New(nil, log),
		log:      log,
	}, rec
}

func TestHandleApple_ReconcilesV1Notification(t *testing.T) {
	s, rec := newTestHandleService(&fakeVerifier{})

	body := []byte(`{
		"notification_type": "INITIAL_BUY",
		"unified_receipt": {
			"latest_receipt_info": [
				{"transaction_id": "t1", "original_transaction_id": "o1", "product_id": "premium.monthly", "expires_date_ms": "4102444800000"}
			]
		}
	}`)
	require.NoError(t, s.HandleApple(context.Background(), body))

	stored, err := rec.GetByLineage(context.Background(), "o1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, types.SubscriptionStatusActive, stored.Status)
	require.Equal(t, types.PlatformIOS, stored.Platform)
}

func TestHandleApple_MalformedBodyIsAcknowledged(t *testing.T) {
	s, rec := newTestHandleService(&fakeVerifier{})

	require.NoError(t, s.HandleApple(context.Background(), []byte(`{{{`)))

	stored, err := rec.GetByLineage(context.Background(), "o1")
	require.NoError(t, err)
	require.Nil(t, stored)
}

func TestHandleApple_UnknownTypeCreatesUnknownRecord(t *testing.T) {
	s, rec := newTestHandleService(&fakeVerifier{})

	body := []byte(`{
		"notification_type": "BRAND_NEW_KIND",
		"unified_receipt": {
			"latest_receipt_info": [
				{"transaction_id": "t1", "original_transaction_id": "o1", "expires_date_ms": "4102444800000"}
			]
		}
	}`)
	require.NoError(t, s.HandleApple(context.Background(), body))

	stored, err := rec.GetByLineage(context.Background(), "o1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, types.SubscriptionStatusUnknown, stored.Status)
	require.Nil(t, stored.ExpiresAt)
}

func TestHandleGoogle_TestNotificationIsAcknowledged(t *testing.T) {
	s, _ := newTestHandleService(&fakeVerifier{})

	body := []byte(`{"version":"1.0","packageName":"com.example.app","testNotification":{"version":"1.0"}}`)
	require.NoError(t, s.HandleGoogle(context.Background(), body))
}

func TestHandleGoogle_MalformedIsAcknowledged(t *testing.T) {
	s, _ := newTestHandleService(&fakeVerifier{})
	require.NoError(t, s.HandleGoogle(context.Background(), []byte(`{{{`)))
}

func seedExpiredLineage(t *testing.T, rec *reconciler.Service, expiresAt time.Time) {
	t.Helper()
	_, err := rec.Apply(context.Background(), reconciler.Candidate{
		Platform:              types.PlatformAndroid,
		OriginalTransactionID: "token-1",
		TransactionID:         "GPA.1",
		ProductID:             "premium.monthly",
		Status:                types.SubscriptionStatusExpired,
		ExpiresAt:             &expiresAt,
	})
	require.NoError(t, err)
}

func TestHandleGoogle_VerificationErrorLeavesRecordUntouched(t *testing.T) {
	v := &fakeVerifier{err: fmt.Errorf("play api down")}
	s, rec := newTestHandleService(v)

	past := time.UnixMilli(1000)
	seedExpiredLineage(t, rec, past)

	err := s.HandleGoogle(context.Background(), rtdnBody(t, playstore.SubscriptionNotificationTypeRecovered))
	require.Error(t, err)

	stored, err := rec.GetByLineage(context.Background(), "token-1")
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusExpired, stored.Status)
	require.Equal(t, past, *stored.ExpiresAt)
}

func TestHandleGoogle_InvalidReverificationOnlyRefreshesRawData(t *testing.T) {
	v := &fakeVerifier{res: &verification.Result{Valid: false}}
	s, rec := newTestHandleService(v)

	past := time.UnixMilli(1000)
	seedExpiredLineage(t, rec, past)

	require.NoError(t, s.HandleGoogle(context.Background(), rtdnBody(t, playstore.SubscriptionNotificationTypeRenewed)))

	stored, err := rec.GetByLineage(context.Background(), "token-1")
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusExpired, stored.Status)
	require.Equal(t, past, *stored.ExpiresAt)
	require.NotEmpty(t, stored.RawData)
}
