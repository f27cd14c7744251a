package payment

import (
	"github.com/Gizz1e/Gizzle/internal/payment/adapters"
	"github.com/Gizz1e/Gizzle/internal/payment/adapters/stripe"
	"github.com/Gizz1e/Gizzle/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.gateway",
	fx.Provide(func() *adapters.Registry {
		return adapters.NewRegistry(
			stripe.NewFactory(),
		)
	}),
	fx.Provide(service.NewGateway),
)
