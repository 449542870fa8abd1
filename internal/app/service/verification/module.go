package verification

import "go.uber.org/fx"

// Module exposes the platform adapters and orchestrator via Fx.
var Module = fx.Options(
	fx.Provide(NewAppleAdapter),
	fx.Provide(NewGoogleAdapter),
	fx.Provide(NewService),
)
