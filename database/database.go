package database

import (
	"fmt"

	"agency-portal/internal/domain/access"
	"agency-portal/internal/domain/activity"
	"agency-portal/internal/domain/billing"
	"agency-portal/internal/domain/profiles"
	"agency-portal/internal/domain/projects"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres and, when autoMigrate is set, applies the
// embedded SQL migrations first.
func Open(dsn string, autoMigrate bool, log zerolog.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_URL not set")
	}

	if autoMigrate {
		version, err := MigrateUp(dsn)
		if err != nil {
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		log.Info().Uint("schema_version", version).Msg("database migrations applied")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	log.Info().Msg("connected to database")
	return db, nil
}

// Models lists every table the service owns, in dependency order.
func Models() []any {
	return []any{
		&profiles.Profile{},
		&projects.Project{},
		&projects.PriceVersion{},
		&access.SiteControl{},
		&billing.Subscription{},
		&billing.Invoice{},
		&billing.WebhookEvent{},
		&activity.Entry{},
		&activity.Alert{},
	}
}

// AutoMigrate builds the schema from the gorm models. Production schemas come
// from the SQL migrations; this is for throwaway databases such as tests.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
