package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/bootstrap/config"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/errs"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/bootstrap/database"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/bootstrap/logging"
	cacheinfra "github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/infrastructure/cache"
	sqliterepo "github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/infrastructure/persistence/sqlite/uow"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/ports"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/usecase/ingest"
	trafficuc "github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/usecase/traffic"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideLocation),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewTrafficRepository,
			fx.As(new(ports.TrafficReader)),
			fx.As(new(ports.TrafficRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(trafficuc.NewService),
	fx.Provide(provideIngestOptions),
	fx.Provide(ingest.NewLoader),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideLocation(cfg config.Config) (*time.Location, error) {
	loc, err := time.LoadLocation(cfg.Ingest.Timezone)
	if err != nil {
		return nil, errs.Wrapf(err, "load timezone %q", cfg.Ingest.Timezone)
	}
	return loc, nil
}

func provideIngestOptions(cfg config.Config) ingest.Options {
	return ingest.Options{
		ChunkSize: cfg.Ingest.ChunkSize,
		Timezone:  cfg.Ingest.Timezone,
	}
}
