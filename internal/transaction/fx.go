package transaction

import (
	"github.com/Gizz1e/Gizzle/internal/transaction/repository"
	"github.com/Gizz1e/Gizzle/internal/transaction/service"
	"go.uber.org/fx"
)

var Module = fx.Module("transaction.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
