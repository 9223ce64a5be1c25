package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"agency-portal/cmd/fx/configfx"
	"agency-portal/cmd/fx/dbfx"
	"agency-portal/cmd/fx/handlersfx"
	"agency-portal/cmd/fx/infrafx"
	"agency-portal/cmd/fx/loggingfx"
	"agency-portal/cmd/fx/reconcilefx"
	"agency-portal/cmd/fx/repositoryfx"
	"agency-portal/config"
	routes "agency-portal/internal/app/http"
	"agency-portal/internal/app/http/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		configfx.Module,
		loggingfx.Module,
		dbfx.Module,
		infrafx.Module,
		repositoryfx.Module,
		reconcilefx.Module,
		handlersfx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func ProvideRouter(cfg *config.Config, h routes.Handlers) *gin.Engine {
	if !strings.EqualFold(cfg.AppEnv, "dev") {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// CORS before routes
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Trace-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Trace-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.TraceIDMiddleware())

	routes.RegisterRoutes(r, h, cfg.JWTSecret)
	return r
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, log zerolog.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info().Str("addr", srv.Addr).Msg("starting HTTP server")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("HTTP server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}
