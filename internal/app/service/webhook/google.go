package webhook

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/awa/go-iap/playstore"

	"github.com/BijayX/iapguard/internal/app/service/verification"
	"github.com/BijayX/iapguard/pkg/logctx"
	"github.com/BijayX/iapguard/pkg/types"
)

// pubsubEnvelope is the Pub/Sub push wrapper Google delivers real-time
// developer notifications in. Data is the base64-encoded notification.
type pubsubEnvelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// normalizeGoogle decodes an RTDN and resolves it to an Event. The purchase
// token is resolved to a lineage via a fresh verification call; the RTDN
// itself carries no status or expiry worth trusting. A nil event with nil
// error means an intentionally ignored test notification.
func (s *Service) normalizeGoogle(ctx context.Context, body []byte) (*Event, error) {
	dn, err := decodeDeveloperNotification(body)
	if err != nil {
		return nil, err
	}

	if dn.TestNotification.Version != "" {
		logctx.FromCtx(ctx, s.log).Infow("google test notification acknowledged")
		return nil, nil
	}

	if sn := dn.SubscriptionNotification; sn.PurchaseToken != "" {
		ev := &Event{
			Kind:                  googleSubscriptionKind(sn.NotificationType),
			Platform:              types.PlatformAndroid,
			OriginalTransactionID: sn.PurchaseToken,
			TransactionID:         sn.PurchaseToken,
			ProductID:             sn.SubscriptionID,
			RawData:               json.RawMessage(body),
		}
		if err := s.enrichFromVerification(ctx, ev, verification.GooglePayload{
			PackageName:    dn.PackageName,
			ProductID:      sn.SubscriptionID,
			PurchaseToken:  sn.PurchaseToken,
			IsSubscription: true,
		}); err != nil {
			return nil, err
		}
		return ev, nil
	}

	if on := dn.OneTimeProductNotification; on.PurchaseToken != "" {
		ev := &Event{
			Kind:                  googleProductKind(on.NotificationType),
			Platform:              types.PlatformAndroid,
			OriginalTransactionID: on.PurchaseToken,
			TransactionID:         on.PurchaseToken,
			ProductID:             on.SKU,
			RawData:               json.RawMessage(body),
		}
		if err := s.enrichFromVerification(ctx, ev, verification.GooglePayload{
			PackageName:   dn.PackageName,
			ProductID:     on.SKU,
			PurchaseToken: on.PurchaseToken,
		}); err != nil {
			return nil, err
		}
		return ev, nil
	}

	return nil, fmt.Errorf("%w: developer notification carries no purchase token", ErrMalformed)
}

// enrichFromVerification performs the required re-verification of the
// purchase token, filling in lineage, transaction id and expiry from the
// authoritative lookup. A verification call that cannot be completed is
// returned as an error so the notification is redelivered instead of being
// applied without an expiry. A completed call reporting an invalid purchase
// downgrades the event to audit-only: the token is still a valid lineage
// key, but its state must not drive an entitlement.
func (s *Service) enrichFromVerification(ctx context.Context, ev *Event, payload verification.GooglePayload) error {
	res, err := s.verifier.Verify(ctx, verification.Request{
		Platform: types.PlatformAndroid,
		Google:   payload,
	})
	if err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("rtdn re-verification failed", "error", err.Error())
		return fmt.Errorf("re-verify purchase token: %w", err)
	}
	if !res.Valid {
		logctx.FromCtx(ctx, s.log).Warnw("rtdn re-verification returned invalid purchase")
		ev.Kind = EventUnknown
		return nil
	}
	if res.OriginalTransactionID != "" {
		ev.OriginalTransactionID = res.OriginalTransactionID
	}
	if res.TransactionID != "" {
		ev.TransactionID = res.TransactionID
	}
	ev.ExpiresAt = res.ExpiresAt
	if res.ProductID != "" {
		ev.ProductID = res.ProductID
	}
	return nil
}

func decodeDeveloperNotification(body []byte) (*playstore.DeveloperNotification, error) {
	var envelope pubsubEnvelope
	payload := body
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message.Data != "" {
		decoded, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: bad base64 in pubsub message: %v", ErrMalformed, err)
		}
		payload = decoded
	}

	var dn playstore.DeveloperNotification
	if err := json.Unmarshal(payload, &dn); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &dn, nil
}

func googleSubscriptionKind(t playstore.SubscriptionNotificationType) EventKind {
	switch t {
	case playstore.SubscriptionNotificationTypePurchased:
		return EventPurchased
	case playstore.SubscriptionNotificationTypeRenewed,
		playstore.SubscriptionNotificationTypeRestarted:
		return EventRenewed
	case playstore.SubscriptionNotificationTypeRecovered:
		return EventRecovered
	case playstore.SubscriptionNotificationTypeCanceled,
		playstore.SubscriptionNotificationTypeRevoked:
		return EventCancelled
	case playstore.SubscriptionNotificationTypeExpired:
		return EventExpired
	case playstore.SubscriptionNotificationTypeAccountHold,
		playstore.SubscriptionNotificationTypeGracePeriod:
		return EventFailedRenewal
	default:
		return EventUnknown
	}
}

func googleProductKind(t playstore.OneTimeProductNotificationType) EventKind {
	switch t {
	case playstore.OneTimeProductNotificationTypePurchased:
		return EventPurchased
	case playstore.OneTimeProductNotificationTypeCanceled:
		return EventCancelled
	default:
		return EventUnknown
	}
}
