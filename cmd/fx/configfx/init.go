package configfx

import (
	"agency-portal/config"

	"go.uber.org/fx"
)

var Module = fx.Provide(config.LoadEnv)
