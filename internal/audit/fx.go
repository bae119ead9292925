package audit

import (
	"go.uber.org/fx"

	"github.com/mantodeus/mantodeus-manager/internal/audit/repository"
	"github.com/mantodeus/mantodeus-manager/internal/audit/service"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
