package reconciliation

import (
	"github.com/Gizz1e/Gizzle/internal/reconciliation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reconciliation.service",
	fx.Provide(service.New),
)
