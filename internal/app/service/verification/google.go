package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	"github.com/BijayX/iapguard/internal/platform/google/googleplay"
	"github.com/BijayX/iapguard/pkg/config"
	"github.com/BijayX/iapguard/pkg/types"
)

// GooglePayload is the client-supplied input for an Android verification.
type GooglePayload struct {
	PackageName    string `json:"package_name"`
	ProductID      string `json:"product_id"`
	PurchaseToken  string `json:"purchase_token"`
	IsSubscription bool   `json:"is_subscription"`
}

// one-time product purchaseState values
const (
	productStatePurchased = 0
	productStateCancelled = 1
	productStatePending   = 2
)

// GoogleAdapter turns a (package, product, token, kind) tuple into a
// normalized Result via the Play Developer API. The authenticated publisher
// client is injected at construction.
type GoogleAdapter struct {
	pub         googleplay.Publisher
	packageName string
	log         *zap.SugaredLogger
	now         func() time.Time
}

func NewGoogleAdapter(cfg *config.Config, log *zap.SugaredLogger) (*GoogleAdapter, error) {
	key, err := cfg.GooglePlay.ServiceAccountJSON()
	if err != nil {
		return nil, err
	}

	var pub googleplay.Publisher
	if len(key) > 0 {
		pub, err = googleplay.NewPublisher(key, cfg.Verification.Timeout())
		if err != nil {
			return nil, fmt.Errorf("failed to init Play publisher client: %w", err)
		}
	} else {
		log.Warnw("google play service account key not configured, android verification disabled")
	}

	return &GoogleAdapter{
		pub:         pub,
		packageName: cfg.GooglePlay.PackageName,
		log:         log,
		now:         time.Now,
	}, nil
}

func newGoogleAdapterWithPublisher(pub googleplay.Publisher, packageName string, log *zap.SugaredLogger) *GoogleAdapter {
	return &GoogleAdapter{pub: pub, packageName: packageName, log: log, now: time.Now}
}

func (g *GoogleAdapter) Verify(ctx context.Context, payload GooglePayload) (*Result, error) {
	if g.pub == nil {
		return nil, ErrNoCredentials
	}
	pkg := payload.PackageName
	if pkg == "" {
		pkg = g.packageName
	}

	if payload.IsSubscription {
		return g.verifySubscription(ctx, pkg, payload)
	}
	return g.verifyProduct(ctx, pkg, payload)
}

func (g *GoogleAdapter) verifySubscription(ctx context.Context, pkg string, payload GooglePayload) (*Result, error) {
	sub, err := g.pub.VerifySubscription(ctx, pkg, payload.ProductID, payload.PurchaseToken)
	if err != nil {
		return g.mapCallError(err)
	}

	var expiresAt *time.Time
	if sub.ExpiryTimeMillis > 0 {
		t := time.UnixMilli(sub.ExpiryTimeMillis)
		expiresAt = &t
	}

	// Cancellation is a terminal intent signal and wins regardless of expiry.
	cancelled := sub.UserCancellationTimeMillis > 0
	status := statusFromExpiry(expiresAt, g.now())
	if cancelled {
		status = types.SubscriptionStatusCancelled
	}

	raw, _ := json.Marshal(sub)
	return &Result{
		Valid:                 true,
		Status:                status,
		Platform:              types.PlatformAndroid,
		ProductID:             payload.ProductID,
		TransactionID:         transactionIDFor(sub.OrderId, payload.PurchaseToken),
		OriginalTransactionID: payload.PurchaseToken,
		ExpiresAt:             expiresAt,
		RawData:               raw,
	}, nil
}

func (g *GoogleAdapter) verifyProduct(ctx context.Context, pkg string, payload GooglePayload) (*Result, error) {
	product, err := g.pub.VerifyProduct(ctx, pkg, payload.ProductID, payload.PurchaseToken)
	if err != nil {
		return g.mapCallError(err)
	}

	raw, _ := json.Marshal(product)

	var status types.SubscriptionStatus
	switch product.PurchaseState {
	case productStatePurchased:
		status = types.SubscriptionStatusActive
	case productStateCancelled:
		status = types.SubscriptionStatusCancelled
	default:
		// Pending is not yet a confirmed entitlement.
		return invalidResult(types.PlatformAndroid, raw), nil
	}

	return &Result{
		Valid:                 true,
		Status:                status,
		Platform:              types.PlatformAndroid,
		ProductID:             payload.ProductID,
		TransactionID:         transactionIDFor(product.OrderId, payload.PurchaseToken),
		OriginalTransactionID: payload.PurchaseToken,
		RawData:               raw,
	}, nil
}

// mapCallError classifies Play API failures. Authorization failures and
// unknown tokens are terminal and surface as invalid results with the HTTP
// status preserved; anything else is a transport failure for the caller's
// retry policy.
func (g *GoogleAdapter) mapCallError(err error) (*Result, error) {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			g.log.Errorw("play api authorization failure, check service account", "code", apiErr.Code)
			raw, _ := json.Marshal(map[string]any{"http_status": apiErr.Code, "message": apiErr.Message})
			return invalidResult(types.PlatformAndroid, raw), nil
		case http.StatusNotFound:
			raw, _ := json.Marshal(map[string]any{"http_status": apiErr.Code, "message": apiErr.Message})
			return invalidResult(types.PlatformAndroid, raw), nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrTransport, err)
}

// transactionIDFor prefers the order id; renewals mint a fresh order id under
// the same purchase token lineage.
func transactionIDFor(orderID, purchaseToken string) string {
	if orderID != "" {
		return orderID
	}
	return purchaseToken
}
