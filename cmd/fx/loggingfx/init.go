package loggingfx

import (
	"agency-portal/config"
	"agency-portal/internal/infra/logging"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

var Module = fx.Provide(provideLogger)

func provideLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.AppEnv, cfg.LogLevel)
}
