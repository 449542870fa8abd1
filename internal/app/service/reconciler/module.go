package reconciler

import "go.uber.org/fx"

// Module exposes the reconciler via Fx. The Store binding is provided by the
// platform layer.
var Module = fx.Options(
	fx.Provide(NewService),
)
