package infrafx

import (
	"context"

	"agency-portal/config"
	"agency-portal/internal/infra/eventlock"
	stripeinfra "agency-portal/internal/infra/stripe"
	"agency-portal/internal/infra/vercel"
	"agency-portal/internal/reconcile"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(provideStripe),
	fx.Provide(provideVercel),
	fx.Provide(provideLocker),
)

func provideStripe(cfg *config.Config) *stripeinfra.Client {
	return stripeinfra.NewClient(cfg.StripeSecretKey, cfg.AppURL)
}

// DeployPlatform is what the engine and the admin routes need from Vercel.
type DeployPlatform interface {
	reconcile.AccessController
	ListProjects(ctx context.Context) ([]vercel.Project, error)
}

func provideVercel(cfg *config.Config, log zerolog.Logger) DeployPlatform {
	c := vercel.NewClient(cfg.VercelAPIToken, cfg.VercelTeamID, cfg.VercelAPIBaseURL)
	if !c.Configured() {
		log.Warn().Msg("VERCEL_API_TOKEN not set; site pause/unpause is recorded locally only")
		return vercel.Disabled{}
	}
	return c
}

// provideLocker returns the webhook event lock and the per-project site lock.
// Both share one redis connection.
func provideLocker(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) (eventlock.Locker, reconcile.SiteLocker, error) {
	if cfg.RedisURL == "" {
		log.Info().Msg("REDIS_URL not set; webhook events and site transitions are not locked across workers")
		return eventlock.NoopLocker{}, eventlock.NoopLocker{}, nil
	}
	l, err := eventlock.NewRedisLockerFromURL(cfg.RedisURL, cfg.WebhookLockTTL)
	if err != nil {
		return nil, nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return l.Close() },
	})
	return l, l.WithPrefix(eventlock.SiteKeyPrefix), nil
}
