package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/brpaz/echozap"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/asthma-connect/clinic/auth"
	"github.com/asthma-connect/clinic/cache"
	"github.com/asthma-connect/clinic/config"
	"github.com/asthma-connect/clinic/dashboard"
	clinicErrors "github.com/asthma-connect/clinic/errors"
	"github.com/asthma-connect/clinic/importer"
	"github.com/asthma-connect/clinic/logger"
	"github.com/asthma-connect/clinic/outbox"
	"github.com/asthma-connect/clinic/patients"
	"github.com/asthma-connect/clinic/store"
	"github.com/asthma-connect/clinic/summary"
	"github.com/asthma-connect/clinic/visits"
)

// Routes that are served without a staff session
var PublicRoutes = []string{"/ready", "/v1/login", "/v1/view/:token"}

func Start(e *echo.Echo, cfg *config.Config, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := e.Start(cfg.ServerAddress()); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Errorw("server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}

func SetReady(healthCheck *HealthCheck, db *mongo.Database, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.Client().Ping(ctx, nil); err != nil {
				return err
			}

			// It's important this is set after mongo is initialized, which is ensured
			// by taking a dependency on mongo in the constructor, because lifecycle hooks
			// are executed in topological order
			healthCheck.SetReady(true)
			return nil
		},
		OnStop: nil,
	})
}

func NewServer(handler *Handler, healthCheck *HealthCheck, authenticator auth.Authenticator, logger *zap.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	// Skip request logging for the readiness probe and auth for public routes
	loggerSkipper := RouteSkipper([]string{"/ready"})
	authMiddleware := auth.NewAuthMiddleware(authenticator, auth.AuthMiddlewareOpts{
		Skipper: RouteSkipper(PublicRoutes),
	})

	e.Use(middleware.Recover())
	e.Use(SkipMiddleware(loggerSkipper, echozap.ZapLogger(logger)))
	e.Use(authMiddleware)

	e.HTTPErrorHandler = clinicErrors.CustomHTTPErrorHandler

	e.GET("/ready", healthCheck.Ready)
	RegisterHandlers(e, handler)

	return e, nil
}

func Dependencies() []fx.Option {
	return []fx.Option{
		fx.Provide(
			logger.NewProductionLogger,
			logger.Suggar,
			config.NewConfig,
			store.NewConfig,
			store.NewClient,
			store.NewDatabase,
			cache.New,
			patients.NewRepository,
			patients.NewService,
			visits.NewRepository,
			visits.NewService,
			outbox.NewRepository,
			summary.NewThresholds,
			summary.NewAssembler,
			summary.NewClock,
			summary.NewLocation,
			summary.NewService,
			dashboard.NewService,
			importer.NewImporter,
			auth.NewConfig,
			auth.NewSessions,
			auth.NewAuthenticator,
			NewHealthCheck,
			NewHandler,
			NewServer,
		),
	}
}

func MainLoop() {
	deps := append(Dependencies(), fx.Invoke(SetReady), fx.Invoke(Start))
	fx.New(deps...).Run()
}
