package project

import (
	"go.uber.org/fx"

	"github.com/mantodeus/mantodeus-manager/internal/project/service"
)

var Module = fx.Module("project.service",
	fx.Provide(service.New),
)
