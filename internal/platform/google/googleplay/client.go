package googleplay

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/awa/go-iap/playstore"
	"google.golang.org/api/androidpublisher/v3"
)

// Publisher is the slice of the androidpublisher surface the verification
// adapter needs. *playstore.Client satisfies it; tests inject fakes.
type Publisher interface {
	VerifySubscription(ctx context.Context, packageName, subscriptionID, token string) (*androidpublisher.SubscriptionPurchase, error)
	VerifyProduct(ctx context.Context, packageName, productID, token string) (*androidpublisher.ProductPurchase, error)
}

// NewPublisher builds a Play Developer API client from service-account key
// JSON. The credential is acquired once here, never re-derived per call.
func NewPublisher(jsonKey []byte, timeout time.Duration) (Publisher, error) {
	if len(jsonKey) == 0 {
		return nil, errors.New("service account key is empty")
	}
	cli, err := playstore.NewWithClient(jsonKey, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, err
	}
	return cli, nil
}
