package reconciler

import (
	"errors"
	"time"

	"gorm.io/datatypes"

	"github.com/BijayX/iapguard/internal/app/service/verification"
	"github.com/BijayX/iapguard/pkg/types"
)

// ErrMissingLineage rejects candidates without a lineage identity before any
// storage call.
var ErrMissingLineage = errors.New("candidate has no original transaction id")

// Candidate is the common reduction of a verification result or a normalized
// webhook event: the tuple the apply rule operates on, plus the identity
// fields needed when the apply creates a record.
type Candidate struct {
	UserID    string
	Platform  types.Platform
	ProductID string

	TransactionID         string
	OriginalTransactionID string

	Status    types.SubscriptionStatus
	ExpiresAt *time.Time
	RawData   datatypes.JSON

	// AuditOnly candidates (unrecognized webhook kinds) refresh RawData but
	// never move Status or ExpiresAt.
	AuditOnly bool
}

// FromResult reduces a successful verification outcome to a candidate.
// Invalid results must not reach the reconciler; callers skip them.
func FromResult(userID string, r *verification.Result) Candidate {
	return Candidate{
		UserID:                userID,
		Platform:              r.Platform,
		ProductID:             r.ProductID,
		TransactionID:         r.TransactionID,
		OriginalTransactionID: r.OriginalTransactionID,
		Status:                r.Status,
		ExpiresAt:             r.ExpiresAt,
		RawData:               datatypes.JSON(r.RawData),
	}
}
