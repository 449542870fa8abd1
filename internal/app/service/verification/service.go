package verification

import (
	"context"
	"fmt"

	"github.com/BijayX/iapguard/pkg/types"
)

// Request is the platform-tagged verification input. Exactly one of the
// embedded payloads is meaningful, selected by Platform.
type Request struct {
	Platform types.Platform `json:"platform"`
	Apple    ApplePayload   `json:"apple"`
	Google   GooglePayload  `json:"google"`
}

// Service is the stateless verification orchestrator: it dispatches to the
// matching platform adapter and nothing else. Retry, caching and
// deduplication are the caller's and the reconciler's responsibilities.
type Service struct {
	apple  *AppleAdapter
	google *GoogleAdapter
}

func NewService(apple *AppleAdapter, google *GoogleAdapter) *Service {
	return &Service{apple: apple, google: google}
}

func (s *Service) Verify(ctx context.Context, req Request) (*Result, error) {
	switch req.Platform {
	case types.PlatformIOS:
		return s.apple.Verify(ctx, req.Apple)
	case types.PlatformAndroid:
		return s.google.Verify(ctx, req.Google)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, req.Platform)
	}
}
