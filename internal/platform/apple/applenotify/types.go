package applenotify

import "github.com/golang-jwt/jwt"

// Request is the webhook body Apple posts for V2 notifications.
type Request struct {
	SignedPayload string `json:"signedPayload"`
}

// NotificationHeader is the JWS header carrying the x5c certificate chain.
type NotificationHeader struct {
	Alg string   `json:"alg"`
	X5c []string `json:"x5c"`
}

// NotificationData is the data object of a decoded V2 payload.
type NotificationData struct {
	AppAppleID            int64  `json:"appAppleId"`
	BundleID              string `json:"bundleId"`
	BundleVersion         string `json:"bundleVersion"`
	Environment           string `json:"environment"`
	SignedRenewalInfo     string `json:"signedRenewalInfo"`
	SignedTransactionInfo string `json:"signedTransactionInfo"`
	Status                int32  `json:"status"`
}

// NotificationPayload is the decoded responseBodyV2DecodedPayload.
// https://developer.apple.com/documentation/appstoreservernotifications/responsebodyv2decodedpayload
type NotificationPayload struct {
	jwt.StandardClaims
	NotificationType    string           `json:"notificationType"`
	Subtype             string           `json:"subtype"`
	NotificationUUID    string           `json:"notificationUUID"`
	NotificationVersion string           `json:"version"`
	SignedDate          int64            `json:"signedDate"`
	Data                NotificationData `json:"data"`
}

// TransactionInfo is the decoded signedTransactionInfo JWS payload.
type TransactionInfo struct {
	jwt.StandardClaims
	AppAccountToken             string `json:"appAccountToken"`
	BundleID                    string `json:"bundleId"`
	Currency                    string `json:"currency"`
	Environment                 string `json:"environment"`
	ExpiresDate                 int64  `json:"expiresDate"`
	InAppOwnershipType          string `json:"inAppOwnershipType"`
	OriginalPurchaseDate        int64  `json:"originalPurchaseDate"`
	OriginalTransactionID       string `json:"originalTransactionId"`
	Price                       int64  `json:"price"`
	ProductID                   string `json:"productId"`
	PurchaseDate                int64  `json:"purchaseDate"`
	RevocationDate              int64  `json:"revocationDate"`
	RevocationReason            int32  `json:"revocationReason"`
	SignedDate                  int64  `json:"signedDate"`
	SubscriptionGroupIdentifier string `json:"subscriptionGroupIdentifier"`
	TransactionID               string `json:"transactionId"`
	Type                        string `json:"type"`
	WebOrderLineItemID          string `json:"webOrderLineItemId"`
}

// RenewalInfo is the decoded signedRenewalInfo JWS payload.
type RenewalInfo struct {
	jwt.StandardClaims
	AutoRenewProductID    string `json:"autoRenewProductId"`
	AutoRenewStatus       int32  `json:"autoRenewStatus"`
	Environment           string `json:"environment"`
	ExpirationIntent      int32  `json:"expirationIntent"`
	OriginalTransactionID string `json:"originalTransactionId"`
	ProductID             string `json:"productId"`
	RenewalDate           int64  `json:"renewalDate"`
	SignedDate            int64  `json:"signedDate"`
}
