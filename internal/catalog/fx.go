package catalog

import (
	"github.com/Gizz1e/Gizzle/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(service.New),
)
