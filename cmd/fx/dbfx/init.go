package dbfx

import (
	"context"

	"agency-portal/config"
	"agency-portal/database"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Provide(provideDB)

func provideDB(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Open(cfg.DBURL, cfg.DBAutoMigrate, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}
