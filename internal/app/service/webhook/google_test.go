package webhook

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/awa/go-iap/playstore"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BijayX/iapguard/internal/app/service/verification"
	"github.com/BijayX/iapguard/pkg/types"
)

type fakeVerifier struct {
	res   *verification.Result
	err   error
	calls int
}

func (f *fakeVerifier) Verify(_ context.Context, _ verification.Request) (*verification.Result, error) {
	f.calls++
	return f.res, f.err
}

func newTestWebhookService(v Verifier) *Service {
	return &Service{verifier: v, log: zap.NewNop().Sugar()}
}

func rtdnBody(t *testing.T, notificationType playstore.SubscriptionNotificationType) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"version":     "1.0",
		"packageName": "com.example.app",
		"subscriptionNotification": map[string]any{
			"version":          "1.0",
			"notificationType": notificationType,
			"purchaseToken":    "token-1",
			"subscriptionId":   "premium.monthly",
		},
	})
	require.NoError(t, err)
	return b
}

func TestNormalizeGoogle_SubscriptionRenewal(t *testing.T) {
	exp := time.UnixMilli(3000)
	v := &fakeVerifier{res: &verification.Result{
		Valid:                 true,
		Status:                types.SubscriptionStatusActive,
		Platform:              types.PlatformAndroid,
		ProductID:             "premium.monthly",
		TransactionID:         "GPA.1",
		OriginalTransactionID: "token-1",
		ExpiresAt:             &exp,
	}}
	s := newTestWebhookService(v)

	ev, err := s.normalizeGoogle(context.Background(), rtdnBody(t, playstore.SubscriptionNotificationTypeRenewed))
	require.NoError(t, err)
	require.Equal(t, EventRenewed, ev.Kind)
	require.Equal(t, types.PlatformAndroid, ev.Platform)
	require.Equal(t, "token-1", ev.OriginalTransactionID)
	require.Equal(t, "GPA.1", ev.TransactionID)
	require.Equal(t, exp, *ev.ExpiresAt)
	require.Equal(t, 1, v.calls)
}

func TestNormalizeGoogle_PubSubEnvelope(t *testing.T) {
	v := &fakeVerifier{res: &verification.Result{Valid: true, OriginalTransactionID: "token-1"}}
	s := newTestWebhookService(v)

	inner := rtdnBody(t, playstore.SubscriptionNotificationTypePurchased)
	envelope := fmt.Sprintf(`{"message":{"data":%q,"messageId":"1"},"subscription":"projects/p/subscriptions/s"}`,
		base64.StdEncoding.EncodeToString(inner))

	ev, err := s.normalizeGoogle(context.Background(), []byte(envelope))
	require.NoError(t, err)
	require.Equal(t, EventPurchased, ev.Kind)
	require.Equal(t, "token-1", ev.OriginalTransactionID)
	require.Equal(t, "token-1", ev.TransactionID)
}

func TestNormalizeGoogle_TestNotificationIgnored(t *testing.T) {
	s := newTestWebhookService(&fakeVerifier{})

	ev, err := s.normalizeGoogle(context.Background(), []byte(`{"version":"1.0","packageName":"com.example.app","testNotification":{"version":"1.0"}}`))
	require.NoError(t, err)
	require.Nil(t, ev)
}

func TestNormalizeGoogle_VerificationErrorPropagates(t *testing.T) {
	v := &fakeVerifier{err: fmt.Errorf("play api down")}
	s := newTestWebhookService(v)

	ev, err := s.normalizeGoogle(context.Background(), rtdnBody(t, playstore.SubscriptionNotificationTypeRenewed))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrMalformed)
	require.Nil(t, ev)
}

func TestNormalizeGoogle_InvalidPurchaseDowngradedToAuditOnly(t *testing.T) {
	v := &fakeVerifier{res: &verification.Result{Valid: false}}
	s := newTestWebhookService(v)

	ev, err := s.normalizeGoogle(context.Background(), rtdnBody(t, playstore.SubscriptionNotificationTypeRenewed))
	require.NoError(t, err)
	require.Equal(t, EventUnknown, ev.Kind)
	require.Equal(t, "token-1", ev.OriginalTransactionID)
	require.Equal(t, "token-1", ev.TransactionID)
	require.True(t, toCandidate(ev).AuditOnly)
}

func TestNormalizeGoogle_Malformed(t *testing.T) {
	s := newTestWebhookService(&fakeVerifier{})

	cases := []string{
		`{{{`,
		`{"version":"1.0","packageName":"com.example.app"}`,
		`{"message":{"data":"!!!not-base64!!!"}}`,
	}
	for _, body := range cases {
		_, err := s.normalizeGoogle(context.Background(), []byte(body))
		require.ErrorIs(t, err, ErrMalformed, body)
	}
}

func TestNormalizeGoogle_OneTimeProduct(t *testing.T) {
	v := &fakeVerifier{res: &verification.Result{Valid: true, OriginalTransactionID: "token-2", TransactionID: "GPA.2"}}
	s := newTestWebhookService(v)

	body := []byte(`{
		"version": "1.0",
		"packageName": "com.example.app",
		"oneTimeProductNotification": {
			"version": "1.0",
			"notificationType": 1,
			"purchaseToken": "token-2",
			"sku": "coins.100"
		}
	}`)
	ev, err := s.normalizeGoogle(context.Background(), body)
	require.NoError(t, err)
	require.Equal(t, EventPurchased, ev.Kind)
	require.Equal(t, "token-2", ev.OriginalTransactionID)
	require.Equal(t, "coins.100", ev.ProductID)
}

func TestGoogleSubscriptionKind(t *testing.T) {
	cases := []struct {
		in   playstore.SubscriptionNotificationType
		want EventKind
	}{
		{playstore.SubscriptionNotificationTypePurchased, EventPurchased},
		{playstore.SubscriptionNotificationTypeRenewed, EventRenewed},
		{playstore.SubscriptionNotificationTypeRestarted, EventRenewed},
		{playstore.SubscriptionNotificationTypeRecovered, EventRecovered},
		{playstore.SubscriptionNotificationTypeCanceled, EventCancelled},
		{playstore.SubscriptionNotificationTypeRevoked, EventCancelled},
		{playstore.SubscriptionNotificationTypeExpired, EventExpired},
		{playstore.SubscriptionNotificationTypeAccountHold, EventFailedRenewal},
		{playstore.SubscriptionNotificationTypeGracePeriod, EventFailedRenewal},
		{playstore.SubscriptionNotificationTypeDeferred, EventUnknown},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, googleSubscriptionKind(tc.in))
	}
}
