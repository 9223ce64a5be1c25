package reconcilefx

import (
	"agency-portal/cmd/fx/infrafx"
	stripeinfra "agency-portal/internal/infra/stripe"
	"agency-portal/internal/reconcile"
	"agency-portal/internal/repository"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

var Module = fx.Provide(provideEngine)

func provideEngine(
	ledger *repository.LedgerRepository,
	directory *repository.DirectoryRepository,
	siteControls *repository.SiteControlRepository,
	journal *repository.JournalRepository,
	platform infrafx.DeployPlatform,
	stripeClient *stripeinfra.Client,
	siteLock reconcile.SiteLocker,
	log zerolog.Logger,
) *reconcile.Engine {
	return reconcile.NewEngine(reconcile.Deps{
		Ledger:       ledger,
		Directory:    directory,
		SiteControls: siteControls,
		Journal:      journal,
		Controller:   platform,
		Fetcher:      stripeClient,
		SiteLock:     siteLock,
		Logger:       log.With().Str("component", "reconcile").Logger(),
	})
}
