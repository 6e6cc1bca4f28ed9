package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/zach-wendland/bna-rentals/config"
	"github.com/zach-wendland/bna-rentals/internal/handlers"
	"github.com/zach-wendland/bna-rentals/pkg/database"
	"github.com/zach-wendland/bna-rentals/pkg/events"
	"github.com/zach-wendland/bna-rentals/pkg/health"
	"github.com/zach-wendland/bna-rentals/pkg/httpclient"
	"github.com/zach-wendland/bna-rentals/pkg/ingest"
	"github.com/zach-wendland/bna-rentals/pkg/kafka"
	"github.com/zach-wendland/bna-rentals/pkg/middleware"
	"github.com/zach-wendland/bna-rentals/pkg/normalize"
	"github.com/zach-wendland/bna-rentals/pkg/redis"
	"github.com/zach-wendland/bna-rentals/pkg/repositories"
	"github.com/zach-wendland/bna-rentals/pkg/startup"
	"github.com/zach-wendland/bna-rentals/pkg/tracing"
	"github.com/zach-wendland/bna-rentals/pkg/zillow"
)

const version = "1.0.0"

type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *dependency) GetName() string                    { return d.name }
func (d *dependency) DependsOn() []string                { return d.dependsOn }
func (d *dependency) Start(ctx context.Context) error    { return d.start(ctx) }
func (d *dependency) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	return d.stop(ctx)
}

func main() {
	// .env is optional, real deployments use the environment directly
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := newLogger(&cfg)

	apiKey, err := cfg.APIKey()
	if err != nil {
		logger.WithError(err).Fatal("startup failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEnabled {
		shutdown, err := tracing.Init(ctx, tracing.Config{
			ServiceName: cfg.AppName,
			Endpoint:    cfg.OTLPEndpoint,
			Protocol:    cfg.OTLPProtocol,
			Insecure:    cfg.OTLPInsecure,
			Timeout:     10 * time.Second,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to initialize tracing")
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(flushCtx)
		}()
	}

	var (
		db          database.DB
		redisClient *redis.Client
		producer    *kafka.Producer
		checker     *health.Checker
		e           *echo.Echo
	)

	boot := startup.New(logger, cfg.StartupMaxAttempts)

	boot.AddDependency(&dependency{
		name: "database",
		start: func(ctx context.Context) error {
			var err error
			db, err = database.Connect(ctx, cfg.DatabaseDriver, cfg.DSN(), database.Options{
				MaxOpenConns:    cfg.DatabaseMaxOpenConns,
				MaxIdleConns:    cfg.DatabaseMaxIdleConns,
				ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
			}, logger)
			return err
		},
		stop: func(ctx context.Context) error {
			return db.Close()
		},
	})

	boot.AddDependency(&dependency{
		name:      "migrations",
		dependsOn: []string{"database"},
		start: func(ctx context.Context) error {
			driver, err := migratepg.WithInstance(db.Unsafe().DB, &migratepg.Config{})
			if err != nil {
				return err
			}
			migrator := database.NewMigrator(logger, database.MigrationConfig{
				FolderPath:    cfg.DatabaseMigrationFolderPath,
				TargetVersion: uint(cfg.DatabaseMigrationVersion),
				ForceVersion:  cfg.DatabaseMigrationForce,
				AutoRollback:  cfg.DatabaseMigrationAutoRollback,
			})
			return migrator.Run(cfg.DatabaseName, driver)
		},
	})

	if cfg.RedisEnabled {
		boot.AddDependency(&dependency{
			name: "redis",
			start: func(ctx context.Context) error {
				var err error
				redisClient, err = redis.NewClient(redis.Config{
					Host:     cfg.RedisHost,
					Port:     cfg.RedisPort,
					Password: cfg.RedisPassword,
					DB:       cfg.RedisDB,
				}, logger)
				return err
			},
			stop: func(ctx context.Context) error {
				return redisClient.Close()
			},
		})
	}

	if cfg.KafkaEnabled {
		boot.AddDependency(&dependency{
			name: "kafka",
			start: func(ctx context.Context) error {
				producer = kafka.NewProducer(kafka.ProducerConfig{
					Brokers:      cfg.KafkaBrokerList(),
					Topic:        cfg.KafkaEventTopic,
					BatchSize:    100,
					BatchTimeout: time.Second,
					RequiredAcks: 1,
				}, logger)
				return nil
			},
			stop: func(ctx context.Context) error {
				return producer.Close()
			},
		})
	}

	serverDeps := []string{"database", "migrations"}
	if cfg.RedisEnabled {
		serverDeps = append(serverDeps, "redis")
	}
	if cfg.KafkaEnabled {
		serverDeps = append(serverDeps, "kafka")
	}

	boot.AddDependency(&dependency{
		name:      "server",
		dependsOn: serverDeps,
		start: func(ctx context.Context) error {
			e = buildServer(&cfg, apiKey, db, redisClient, producer, logger)

			checker = health.NewChecker(db, redisPinger(redisClient), version)
			checker.RegisterRoutes(e)

			go func() {
				addr := fmt.Sprintf(":%d", cfg.Port)
				if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
					logger.WithError(err).Fatal("server stopped unexpectedly")
				}
			}()
			checker.SetReady(true)
			return nil
		},
		stop: func(ctx context.Context) error {
			checker.SetReady(false)
			return e.Shutdown(ctx)
		},
	})

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Fatal("startup failed")
	}

	logger.Infof("%s listening on port %d", cfg.AppName, cfg.Port)

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := boot.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown did not complete cleanly")
	}
}

func newLogger(cfg *config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func buildServer(cfg *config.Config, apiKey string, db database.DB, redisClient *redis.Client, producer *kafka.Producer, logger ectologger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomw.Recover())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	httpClient := httpclient.NewClient(httpclient.Config{
		Timeout:         cfg.ZillowTimeout,
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
	}, logger)

	zillowClient := zillow.NewClient(httpClient, zillow.ClientConfig{
		Host:     cfg.ZillowAPIHost,
		APIKey:   apiKey,
		Retries:  cfg.ZillowRetries,
		Cooldown: cfg.ZillowCooldown,
	}, logger)

	rentals := repositories.NewRentals(db, logger)
	collector := ingest.NewCollector(zillowClient, normalize.New(logger), logger)

	var locker *redis.Locker
	if redisClient != nil {
		locker = redis.NewLocker(redisClient, "bna-rentals:")
	}
	var emitter *events.Emitter
	if producer != nil {
		emitter = events.NewEmitter(producer, logger)
	}

	service := ingest.NewService(collector, rentals, emitter, locker, ingest.ServiceConfig{
		Params: zillow.SearchParams{
			Status:   cfg.SearchStatus,
			MinPrice: cfg.SearchMinPrice,
			MaxPrice: cfg.SearchMaxPrice,
			BedsMin:  cfg.SearchBedsMin,
			BedsMax:  cfg.SearchBedsMax,
			SqftMin:  cfg.SearchSqftMin,
			SqftMax:  cfg.SearchSqftMax,
		},
		Locations:           cfg.SearchLocations,
		MaxPagesPerLocation: cfg.MaxPagesPerLocation,
		LocationsPerBatch:   cfg.LocationsPerBatch,
		InterRequestDelay:   cfg.InterRequestDelay,
		InterBatchDelay:     cfg.InterBatchDelay,
		LockTTL:             cfg.SyncLockTTL,
	}, logger)

	handlers.NewRentalsHandler(rentals, logger).Register(e)
	handlers.NewSyncHandler(service, logger).Register(e)
	handlers.NewCronHandler(httpClient, cfg.PublicBaseURL, cfg.CronSecret, logger).Register(e)

	return e
}

// redisPinger adapts the optional Redis client to the health checker,
// keeping the interface value nil when Redis is disabled.
func redisPinger(client *redis.Client) health.Pinger {
	if client == nil {
		return nil
	}
	return client
}
