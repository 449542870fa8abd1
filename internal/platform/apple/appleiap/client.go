package appleiap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/awa/go-iap/appstore"
)

const (
	// StatusSandboxReceiptOnProduction is Apple's "this receipt is from the
	// sandbox environment but was sent to production" code. It mandates a
	// single redirect to the sandbox endpoint.
	StatusSandboxReceiptOnProduction = 21007
)

// ReceiptInfo is one latest_receipt_info (or legacy in_app) entry. Apple
// encodes millisecond timestamps as decimal strings.
type ReceiptInfo struct {
	ProductID             string `json:"product_id"`
	TransactionID         string `json:"transaction_id"`
	OriginalTransactionID string `json:"original_transaction_id"`
	PurchaseDateMS        string `json:"purchase_date_ms"`
	ExpiresDateMS         string `json:"expires_date_ms"`
	CancellationDateMS    string `json:"cancellation_date_ms"`
}

// ExpiresAt parses the expiration timestamp; nil when the entry carries none
// (non-subscription purchases).
func (r *ReceiptInfo) ExpiresAt() *time.Time {
	return parseMS(r.ExpiresDateMS)
}

func (r *ReceiptInfo) PurchasedAt() *time.Time {
	return parseMS(r.PurchaseDateMS)
}

func parseMS(s string) *time.Time {
	if s == "" {
		return nil
	}
	var ms int64
	if _, err := fmt.Sscanf(s, "%d", &ms); err != nil || ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms)
	return &t
}

// LatestEntry picks the receipt entry with the greatest expiration date;
// entries without expirations (non-subscriptions) fall back to purchase-date
// ordering.
func LatestEntry(entries []ReceiptInfo) *ReceiptInfo {
	if len(entries) == 0 {
		return nil
	}
	best := &entries[0]
	for i := 1; i < len(entries); i++ {
		e := &entries[i]
		if sortKey(e).After(sortKey(best)) {
			best = e
		}
	}
	return best
}

func sortKey(e *ReceiptInfo) time.Time {
	if exp := e.ExpiresAt(); exp != nil {
		return *exp
	}
	if purchase := e.PurchasedAt(); purchase != nil {
		return *purchase
	}
	return time.Time{}
}

// VerificationResponse is the subset of the verifyReceipt response this
// service consumes. The full body is retained separately as raw data.
type VerificationResponse struct {
	Status            int           `json:"status"`
	Environment       string        `json:"environment"`
	LatestReceipt     string        `json:"latest_receipt"`
	LatestReceiptInfo []ReceiptInfo `json:"latest_receipt_info"`
	Receipt           struct {
		BundleID string        `json:"bundle_id"`
		InApp    []ReceiptInfo `json:"in_app"`
	} `json:"receipt"`

	raw json.RawMessage
}

// Raw returns the upstream response body as received.
func (r *VerificationResponse) Raw() json.RawMessage { return r.raw }

// Entries returns the receipt entries to inspect, preferring
// latest_receipt_info over the legacy in_app list.
func (r *VerificationResponse) Entries() []ReceiptInfo {
	if len(r.LatestReceiptInfo) > 0 {
		return r.LatestReceiptInfo
	}
	return r.Receipt.InApp
}

// Client posts verification requests to a single verifyReceipt endpoint.
// Routing between production and sandbox is the caller's policy; the client
// never follows Apple's 21007 redirect on its own.
type Client struct {
	url     string
	httpCli *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = appstore.ProductionURL
	}
	return &Client{url: url, httpCli: &http.Client{Timeout: timeout}}
}

// NewSandboxClient returns a client pinned to the sandbox endpoint.
func NewSandboxClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = appstore.SandboxURL
	}
	return &Client{url: url, httpCli: &http.Client{Timeout: timeout}}
}

func (c *Client) Verify(ctx context.Context, req appstore.IAPRequest) (*VerificationResponse, error) {
	body := new(bytes.Buffer)
	if err := json.NewEncoder(body).Encode(req); err != nil {
		return nil, fmt.Errorf("failed to encode verify request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build verify request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpCli.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("verifyReceipt call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("verifyReceipt upstream error: status %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read verifyReceipt response: %w", err)
	}

	var out VerificationResponse
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("failed to decode verifyReceipt response: %w", err)
	}
	out.raw = json.RawMessage(buf.Bytes())
	return &out, nil
}
