package types

// Platform identifies the store a purchase originates from.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

func (p Platform) Known() bool {
	return p == PlatformIOS || p == PlatformAndroid
}

// SubscriptionStatus is the normalized entitlement state shared by both
// platform adapters and the reconciler.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusUnknown   SubscriptionStatus = "unknown"
)
