package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/awa/go-iap/appstore"

	"github.com/BijayX/iapguard/internal/platform/apple/appleiap"
	"github.com/BijayX/iapguard/internal/platform/apple/applenotify"
	"github.com/BijayX/iapguard/pkg/types"
)

// appleV1Notification is the statusUpdateNotification body for App Store
// server notifications V1.
type appleV1Notification struct {
	NotificationType   appstore.NotificationType `json:"notification_type"`
	Environment        string                    `json:"environment"`
	AutoRenewProductID string                    `json:"auto_renew_product_id"`
	UnifiedReceipt     struct {
		Status            int                    `json:"status"`
		LatestReceiptInfo []appleiap.ReceiptInfo `json:"latest_receipt_info"`
	} `json:"unified_receipt"`
}

// parseApple normalizes an App Store server notification, accepting both the
// V1 JSON body and the V2 {"signedPayload": JWS} envelope. A nil event with
// nil error means the notification is intentionally ignored (V2 TEST ping).
func parseApple(body []byte) (*Event, error) {
	var probe applenotify.Request
	if err := json.Unmarshal(body, &probe); err == nil && probe.SignedPayload != "" {
		return parseAppleV2(probe.SignedPayload, body)
	}
	return parseAppleV1(body)
}

func parseAppleV1(body []byte) (*Event, error) {
	var n appleV1Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if n.NotificationType == "" {
		return nil, fmt.Errorf("%w: missing notification_type", ErrMalformed)
	}

	entry := appleiap.LatestEntry(n.UnifiedReceipt.LatestReceiptInfo)
	if entry == nil || entry.OriginalTransactionID == "" {
		return nil, fmt.Errorf("%w: no receipt entry with an original transaction id", ErrMalformed)
	}

	return &Event{
		Kind:                  appleV1Kind(n.NotificationType),
		Platform:              types.PlatformIOS,
		OriginalTransactionID: entry.OriginalTransactionID,
		TransactionID:         entry.TransactionID,
		ProductID:             entry.ProductID,
		ExpiresAt:             entry.ExpiresAt(),
		RawData:               json.RawMessage(body),
	}, nil
}

func appleV1Kind(t appstore.NotificationType) EventKind {
	switch t {
	case appstore.NotificationTypeInitialBuy:
		return EventPurchased
	case appstore.NotificationTypeDidRenew, appstore.NotificationTypeInteractiveRenewal:
		return EventRenewed
	case appstore.NotificationTypeDidRecover:
		return EventRecovered
	case appstore.NotificationTypeDidFailToRenew:
		return EventFailedRenewal
	case appstore.NotificationTypeCancel, appstore.NotificationTypeRefund, "DID_CANCEL", "REVOKE":
		return EventCancelled
	case "EXPIRED":
		return EventExpired
	default:
		return EventUnknown
	}
}

func parseAppleV2(signedPayload string, body []byte) (*Event, error) {
	n, err := applenotify.Parse(signedPayload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if n.IsTestNotification {
		return nil, nil
	}
	tx := n.TransactionInfo
	if tx == nil || tx.OriginalTransactionID == "" {
		return nil, fmt.Errorf("%w: signed payload carries no transaction identity", ErrMalformed)
	}

	var expiresAt *time.Time
	if tx.ExpiresDate > 0 {
		t := time.UnixMilli(tx.ExpiresDate)
		expiresAt = &t
	}

	return &Event{
		Kind:                  appleV2Kind(n),
		Platform:              types.PlatformIOS,
		OriginalTransactionID: tx.OriginalTransactionID,
		TransactionID:         tx.TransactionID,
		ProductID:             tx.ProductID,
		ExpiresAt:             expiresAt,
		RawData:               json.RawMessage(body),
	}, nil
}

func appleV2Kind(n *applenotify.Notification) EventKind {
	switch n.Payload.NotificationType {
	case "SUBSCRIBED":
		if n.Payload.Subtype == "RESUBSCRIBE" {
			return EventRenewed
		}
		return EventPurchased
	case "DID_RENEW":
		if n.Payload.Subtype == "BILLING_RECOVERY" {
			return EventRecovered
		}
		return EventRenewed
	case "DID_FAIL_TO_RENEW":
		return EventFailedRenewal
	case "EXPIRED":
		return EventExpired
	case "REFUND", "REVOKE":
		return EventCancelled
	case "DID_CHANGE_RENEWAL_STATUS":
		if n.Payload.Subtype == "AUTO_RENEW_DISABLED" {
			return EventCancelled
		}
		return EventUnknown
	default:
		return EventUnknown
	}
}
