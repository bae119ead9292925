package invoice

import (
	"go.uber.org/fx"

	"github.com/mantodeus/mantodeus-manager/internal/invoice/repository"
	"github.com/mantodeus/mantodeus-manager/internal/invoice/service"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
