package providers

import (
	"go.uber.org/fx"

	"github.com/mantodeus/mantodeus-manager/internal/providers/extraction"
	"github.com/mantodeus/mantodeus-manager/internal/providers/pdf"
)

var Module = fx.Module("providers",
	extraction.Module,
	pdf.Module,
)
