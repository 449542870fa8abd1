package purchase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BijayX/iapguard/internal/app/service/auditlog"
	"github.com/BijayX/iapguard/internal/app/service/reconciler"
	"github.com/BijayX/iapguard/internal/app/service/verification"
	"github.com/BijayX/iapguard/internal/platform/db"
	"github.com/BijayX/iapguard/pkg/config"
	"github.com/BijayX/iapguard/pkg/types"
)

func newTestPurchaseService(t *testing.T, appleBody string) (*Service, *reconciler.Service) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(appleBody))
	}))
	t.Cleanup(srv.Close)

	log := zap.NewNop().Sugar()
	cfg := &config.Config{}
	cfg.AppleIAP.ProductionURL = srv.URL
	cfg.AppleIAP.SandboxURL = srv.URL
	cfg.AppleIAP.SharedSecret = "secret"

	apple := verification.NewAppleAdapter(cfg, log)
	google, err := verification.NewGoogleAdapter(cfg, log)
	require.NoError(t, err)

	rec := reconciler.NewService(db.NewMemoryStore(), log)
	return NewService(verification.NewService(apple, google), rec, auditlog.New(nil, log), log), rec
}

func TestVerifyAndApply_StoresValidPurchase(t *testing.T) {
	body := `{"status":0,"latest_receipt_info":[{"transaction_id":"t1","original_transaction_id":"o1","product_id":"premium.monthly","expires_date_ms":"4102444800000"}]}`
	svc, rec := newTestPurchaseService(t, body)

	out, err := svc.VerifyAndApply(context.Background(), "user-1", verification.Request{
		Platform: types.PlatformIOS,
		Apple:    verification.ApplePayload{ReceiptData: "blob"},
	})
	require.NoError(t, err)
	require.True(t, out.Result.Valid)
	require.NotNil(t, out.Record)
	require.Equal(t, "user-1", out.Record.UserID)
	require.Equal(t, types.SubscriptionStatusActive, out.Record.Status)

	stored, err := rec.GetByLineage(context.Background(), "o1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, out.Record.ID, stored.ID)
}

func TestVerifyAndApply_InvalidReceiptLeavesStateUntouched(t *testing.T) {
	svc, rec := newTestPurchaseService(t, `{"status":21003}`)

	out, err := svc.VerifyAndApply(context.Background(), "user-1", verification.Request{
		Platform: types.PlatformIOS,
		Apple:    verification.ApplePayload{ReceiptData: "bad"},
	})
	require.NoError(t, err)
	require.False(t, out.Result.Valid)
	require.Nil(t, out.Record)

	stored, err := rec.GetByLineage(context.Background(), "o1")
	require.NoError(t, err)
	require.Nil(t, stored)
}

func TestVerifyAndApply_UnsupportedPlatform(t *testing.T) {
	svc, _ := newTestPurchaseService(t, `{"status":0}`)

	_, err := svc.VerifyAndApply(context.Background(), "user-1", verification.Request{Platform: "web"})
	require.ErrorIs(t, err, verification.ErrUnsupportedPlatform)
}
