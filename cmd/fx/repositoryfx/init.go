package repositoryfx

import (
	"agency-portal/internal/repository"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(repository.NewDirectoryRepository),
	fx.Provide(repository.NewLedgerRepository),
	fx.Provide(repository.NewSiteControlRepository),
	fx.Provide(repository.NewJournalRepository),
	fx.Provide(repository.NewWebhookEventRepository),
)
