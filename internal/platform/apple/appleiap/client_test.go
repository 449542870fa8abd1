package appleiap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/awa/go-iap/appstore"
	"github.com/stretchr/testify/require"
)

func TestReceiptInfo_ExpiresAt(t *testing.T) {
	r := &ReceiptInfo{ExpiresDateMS: "1735689600000"}
	exp := r.ExpiresAt()
	require.NotNil(t, exp)
	require.Equal(t, time.UnixMilli(1735689600000), *exp)
}

func TestReceiptInfo_ExpiresAt_EmptyAndGarbage(t *testing.T) {
	require.Nil(t, (&ReceiptInfo{}).ExpiresAt())
	require.Nil(t, (&ReceiptInfo{ExpiresDateMS: "not-a-number"}).ExpiresAt())
	require.Nil(t, (&ReceiptInfo{ExpiresDateMS: "-5"}).ExpiresAt())
}

func TestLatestEntry_PrefersGreatestExpiry(t *testing.T) {
	entries := []ReceiptInfo{
		{TransactionID: "t1", ExpiresDateMS: "1000"},
		{TransactionID: "t3", ExpiresDateMS: "3000"},
		{TransactionID: "t2", ExpiresDateMS: "2000"},
	}
	best := LatestEntry(entries)
	require.NotNil(t, best)
	require.Equal(t, "t3", best.TransactionID)
}

func TestLatestEntry_FallsBackToPurchaseDate(t *testing.T) {
	entries := []ReceiptInfo{
		{TransactionID: "old", PurchaseDateMS: "1000"},
		{TransactionID: "new", PurchaseDateMS: "2000"},
	}
	best := LatestEntry(entries)
	require.NotNil(t, best)
	require.Equal(t, "new", best.TransactionID)
}

func TestLatestEntry_Empty(t *testing.T) {
	require.Nil(t, LatestEntry(nil))
}

func TestClient_Verify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"status":0,"environment":"Production","latest_receipt_info":[{"transaction_id":"t1","original_transaction_id":"o1","product_id":"p1","expires_date_ms":"2000"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	resp, err := c.Verify(context.Background(), appstore.IAPRequest{ReceiptData: "blob"})
	require.NoError(t, err)
	require.Equal(t, 0, resp.Status)
	require.Len(t, resp.Entries(), 1)
	require.Equal(t, "o1", resp.Entries()[0].OriginalTransactionID)
	require.Contains(t, string(resp.Raw()), `"environment":"Production"`)
}

func TestClient_Verify_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Verify(context.Background(), appstore.IAPRequest{})
	require.Error(t, err)
}

func TestClient_DefaultURLs(t *testing.T) {
	require.Equal(t, appstore.ProductionURL, NewClient("", time.Second).url)
	require.Equal(t, appstore.SandboxURL, NewSandboxClient("", time.Second).url)
}

func TestVerificationResponse_Entries_LegacyInApp(t *testing.T) {
	var resp VerificationResponse
	resp.Receipt.InApp = []ReceiptInfo{{TransactionID: "legacy"}}
	require.Equal(t, "legacy", resp.Entries()[0].TransactionID)
}
