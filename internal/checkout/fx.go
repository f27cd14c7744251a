package checkout

import (
	"github.com/Gizz1e/Gizzle/internal/checkout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("checkout.service",
	fx.Provide(service.New),
)
