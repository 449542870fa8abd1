package models

import (
	"time"

	"github.com/BijayX/iapguard/pkg/types"
	"gorm.io/datatypes"
)

// SubscriptionRecord stores the reconciled state of one purchase lineage.
// OriginalTransactionID is the platform-stable identity of the lineage; a
// renewal mints a new TransactionID under the same lineage. Records are never
// deleted; cancellation and expiry are status transitions.
type SubscriptionRecord struct {
	ID       string         `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID   string         `gorm:"column:user_id;type:varchar(64);index" json:"user_id"`
	Platform types.Platform `gorm:"column:platform;type:varchar(16);not null" json:"platform"`

	ProductID     string `gorm:"column:product_id;type:varchar(128);not null" json:"product_id"`
	TransactionID string `gorm:"column:transaction_id;type:varchar(255);not null;uniqueIndex" json:"transaction_id"`
	// OriginalTransactionID keys the lineage. For Google it is the purchase
	// token, which stays stable across renewals.
	OriginalTransactionID string `gorm:"column:original_transaction_id;type:varchar(255);not null;uniqueIndex" json:"original_transaction_id"`

	Status types.SubscriptionStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	// ExpiresAt is nil for non-subscription purchases (treated as perpetual).
	ExpiresAt *time.Time `gorm:"column:expires_at;default:null" json:"expires_at"`
	// RawData retains the full upstream response for audit and diagnosis.
	// It is never parsed downstream.
	RawData datatypes.JSON `gorm:"column:raw_data;type:jsonb" json:"raw_data"`

	// CreatedAt and UpdatedAt are managed by GORM.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SubscriptionRecord) TableName() string {
	return "subscription_record"
}

// Active reports whether the record grants an entitlement right now.
// A nil expiry means a perpetual (non-subscription) purchase.
func (r *SubscriptionRecord) Active() bool {
	return r != nil &&
		r.Status == types.SubscriptionStatusActive &&
		(r.ExpiresAt == nil || r.ExpiresAt.After(time.Now()))
}
