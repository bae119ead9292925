package contact

import (
	"go.uber.org/fx"

	"github.com/mantodeus/mantodeus-manager/internal/contact/repository"
	"github.com/mantodeus/mantodeus-manager/internal/contact/service"
)

var Module = fx.Module("contact.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
