package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/awa/go-iap/appstore"
	"go.uber.org/zap"

	"github.com/BijayX/iapguard/internal/platform/apple/appleiap"
	"github.com/BijayX/iapguard/pkg/config"
	"github.com/BijayX/iapguard/pkg/types"
)

// ApplePayload is the client-supplied input for an iOS verification.
type ApplePayload struct {
	ReceiptData string `json:"receipt_data"`
	Password    string `json:"password,omitempty"`
}

type receiptEndpoint interface {
	Verify(ctx context.Context, req appstore.IAPRequest) (*appleiap.VerificationResponse, error)
}

// AppleAdapter turns a base64 receipt blob into a normalized Result. It owns
// the sandbox-fallback policy: production first, then exactly one retry
// against sandbox when production answers 21007. Sandbox is never retried
// against production and there is no fallback loop.
type AppleAdapter struct {
	production   receiptEndpoint
	sandbox      receiptEndpoint
	sharedSecret string
	log          *zap.SugaredLogger
	now          func() time.Time
}

func NewAppleAdapter(cfg *config.Config, log *zap.SugaredLogger) *AppleAdapter {
	timeout := cfg.Verification.Timeout()
	return &AppleAdapter{
		production:   appleiap.NewClient(cfg.AppleIAP.ProductionURL, timeout),
		sandbox:      appleiap.NewSandboxClient(cfg.AppleIAP.SandboxURL, timeout),
		sharedSecret: cfg.AppleIAP.SharedSecret,
		log:          log,
		now:          time.Now,
	}
}

func (a *AppleAdapter) Verify(ctx context.Context, payload ApplePayload) (*Result, error) {
	password := payload.Password
	if password == "" {
		password = a.sharedSecret
	}
	req := appstore.IAPRequest{
		ReceiptData:            payload.ReceiptData,
		Password:               password,
		ExcludeOldTransactions: true,
	}

	resp, err := a.production.Verify(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if resp.Status == appleiap.StatusSandboxReceiptOnProduction {
		a.log.Infow("sandbox receipt sent to production, retrying against sandbox")
		resp, err = a.sandbox.Verify(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
	}

	if resp.Status != 0 {
		// Includes a second 21007 from sandbox: terminal, no further retry.
		if statusErr := appstore.HandleError(resp.Status); statusErr != nil {
			a.log.Warnw("apple receipt rejected", "status", resp.Status, "reason", statusErr.Error())
		}
		return invalidResult(types.PlatformIOS, resp.Raw()), nil
	}

	entry := appleiap.LatestEntry(resp.Entries())
	if entry == nil {
		a.log.Warnw("apple receipt verified but carries no purchase entries")
		return invalidResult(types.PlatformIOS, resp.Raw()), nil
	}

	expiresAt := entry.ExpiresAt()
	return &Result{
		Valid:                 true,
		Status:                statusFromExpiry(expiresAt, a.now()),
		Platform:              types.PlatformIOS,
		ProductID:             entry.ProductID,
		TransactionID:         entry.TransactionID,
		OriginalTransactionID: entry.OriginalTransactionID,
		ExpiresAt:             expiresAt,
		RawData:               resp.Raw(),
	}, nil
}
