package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BijayX/iapguard/pkg/types"
)

func TestSubscriptionRecord_Active(t *testing.T) {
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	cases := []struct {
		name string
		rec  *SubscriptionRecord
		want bool
	}{
		{"nil record", nil, false},
		{"active with future expiry", &SubscriptionRecord{Status: types.SubscriptionStatusActive, ExpiresAt: &future}, true},
		{"active perpetual", &SubscriptionRecord{Status: types.SubscriptionStatusActive}, true},
		{"active but lapsed", &SubscriptionRecord{Status: types.SubscriptionStatusActive, ExpiresAt: &past}, false},
		{"cancelled", &SubscriptionRecord{Status: types.SubscriptionStatusCancelled, ExpiresAt: &future}, false},
		{"expired", &SubscriptionRecord{Status: types.SubscriptionStatusExpired}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.rec.Active())
		})
	}
}
