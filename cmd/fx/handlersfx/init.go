package handlersfx

import (
	"agency-portal/cmd/fx/infrafx"
	"agency-portal/config"
	adminapi "agency-portal/internal/api/admin"
	"agency-portal/internal/api/billing"
	projectsapi "agency-portal/internal/api/projects"
	stripewebhooks "agency-portal/internal/api/stripewebhook"
	"agency-portal/internal/api/users"
	routes "agency-portal/internal/app/http"
	"agency-portal/internal/infra/eventlock"
	stripeinfra "agency-portal/internal/infra/stripe"
	"agency-portal/internal/reconcile"
	"agency-portal/internal/repository"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(provideWebhookHandler),
	fx.Provide(provideBillingHandler),
	fx.Provide(provideAdminHandler),
	fx.Provide(provideProjectsHandler),
	fx.Provide(users.NewHandler),
	fx.Provide(provideHandlers),
)

func provideWebhookHandler(
	cfg *config.Config,
	engine *reconcile.Engine,
	events *repository.WebhookEventRepository,
	locker eventlock.Locker,
	log zerolog.Logger,
) *stripewebhooks.Handler {
	return stripewebhooks.NewHandler(engine, events, locker, cfg.StripeWebhookSecret,
		log.With().Str("component", "stripe_webhook").Logger())
}

func provideBillingHandler(
	stripeClient *stripeinfra.Client,
	ledger *repository.LedgerRepository,
	directory *repository.DirectoryRepository,
	journal *repository.JournalRepository,
	log zerolog.Logger,
) *billing.Handler {
	return billing.NewHandler(stripeClient, ledger, directory, journal, log)
}

func provideAdminHandler(
	engine *reconcile.Engine,
	platform infrafx.DeployPlatform,
	directory *repository.DirectoryRepository,
	siteControls *repository.SiteControlRepository,
	journal *repository.JournalRepository,
	log zerolog.Logger,
) *adminapi.Handler {
	return adminapi.NewHandler(engine, platform, directory, siteControls, journal, log)
}

func provideProjectsHandler(
	stripeClient *stripeinfra.Client,
	directory *repository.DirectoryRepository,
	ledger *repository.LedgerRepository,
	journal *repository.JournalRepository,
	log zerolog.Logger,
) *projectsapi.Handler {
	return projectsapi.NewHandler(stripeClient, directory, ledger, journal, log)
}

func provideHandlers(
	webhook *stripewebhooks.Handler,
	b *billing.Handler,
	admin *adminapi.Handler,
	projects *projectsapi.Handler,
	u *users.Handler,
	directory *repository.DirectoryRepository,
) routes.Handlers {
	return routes.Handlers{
		Webhook:  webhook,
		Billing:  b,
		Admin:    admin,
		Projects: projects,
		Users:    u,
		Profiles: directory,
	}
}
