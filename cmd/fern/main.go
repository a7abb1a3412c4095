package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectoinject/loglevel"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
	apartmentrepo "github.com/Ramsey-B/fern/internal/repositories/apartment"
	regionrepo "github.com/Ramsey-B/fern/internal/repositories/region"
	transactionrepo "github.com/Ramsey-B/fern/internal/repositories/transaction"
	"github.com/Ramsey-B/fern/pkg/aptname"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/dongname"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/namecache"
	"github.com/Ramsey-B/fern/pkg/processor"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/region"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/routes/match"
	"github.com/Ramsey-B/fern/pkg/startup"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fern: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := newZapLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fern: failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zapLogger.Sync() }()
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("fern stopped with an error")
		os.Exit(1)
	}
}

func newZapLogger(cfg config.Config) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapConfig = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zapConfig.Level = level
	return zapConfig.Build(zap.Fields(zap.String("app", cfg.AppName), zap.String("version", version)))
}

// service holds everything built while starting up, so that later dependencies and the
// shutdown path can reach it.
type service struct {
	cfg    config.Config
	logger ectologger.Logger

	names     *aptname.Processor
	nameCache *namecache.Cache[aptname.ProcessedName]
	dongs     *dongname.Processor
	dongCache *namecache.Cache[[]string]
	matcher   *matching.Matcher
	address   *matching.AddressMatcher

	db        *database.DatabaseInstance
	redis     *redis.Client
	producer  *kafka.Producer
	consumer  *kafka.Consumer
	processor *processor.Processor
	server    *echo.Echo
	checker   *health.Checker
}

func run(cfg config.Config, logger ectologger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing())
	if err != nil {
		return err
	}

	svc, err := newService(cfg, logger)
	if err != nil {
		return err
	}

	s := startup.NewStartup(logger, cfg.StartupMaxAttempts, cfg.StartupBackoffUnit)
	svc.register(s)

	if err := s.Start(ctx); err != nil {
		_ = s.Stop(context.Background())
		return err
	}
	svc.checker.SetReady(true)
	logger.WithContext(ctx).Infof("%s %s started", cfg.AppName, version)

	go svc.reportCacheSizes(ctx)

	<-ctx.Done()
	logger.Info("shutting down")
	svc.checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	stopErr := s.Stop(shutdownCtx)
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Warn("failed to flush traces")
	}
	return stopErr
}

func newService(cfg config.Config, logger ectologger.Logger) (*service, error) {
	nameCache, err := namecache.New[aptname.ProcessedName](cfg.NameCacheSize)
	if err != nil {
		return nil, err
	}
	dongCache, err := namecache.New[[]string](cfg.NameCacheSize)
	if err != nil {
		return nil, err
	}

	names := aptname.NewProcessor(nameCache)
	return &service{
		cfg:       cfg,
		logger:    logger,
		names:     names,
		nameCache: nameCache,
		dongs:     dongname.NewProcessor(dongCache),
		dongCache: dongCache,
		matcher:   matching.NewMatcher(names, cfg.Matching()),
		address:   matching.NewAddressMatcher(cfg.Matching()),
	}, nil
}

func (svc *service) register(s *startup.Startup) {
	cfg := svc.cfg

	s.AddDependency(startup.Dependency{
		Name: "database",
		StartFunc: func(ctx context.Context) error {
			db, err := database.Connect(ctx, cfg.Database(), svc.logger)
			if err != nil {
				return err
			}
			if err := database.NewMigrationService(svc.logger, cfg.Migration()).Migrate(db, cfg.DatabaseName); err != nil {
				_ = db.Close()
				return err
			}
			svc.db = db
			return nil
		},
		StopFunc: func(context.Context) error { return svc.db.Close() },
	})

	needs := []string{"database", "producer"}
	if cfg.RedisEnabled {
		needs = append(needs, "redis")
		s.AddDependency(startup.Dependency{
			Name: "redis",
			StartFunc: func(ctx context.Context) error {
				client, err := redis.NewClient(ctx, cfg.Redis(), svc.logger)
				if err != nil {
					return err
				}
				svc.redis = client
				return nil
			},
			StopFunc: func(context.Context) error { return svc.redis.Close() },
		})
	}

	s.AddDependency(startup.Dependency{
		Name: "producer",
		StartFunc: func(context.Context) error {
			svc.producer = kafka.NewProducer(cfg.Producer(), svc.logger)
			return nil
		},
		StopFunc: func(context.Context) error { return svc.producer.Close() },
	})

	s.AddDependency(startup.Dependency{
		Name:      "processor",
		Needs:     needs,
		StartFunc: func(context.Context) error { svc.buildProcessor(); return nil },
	})

	if cfg.KafkaConsumerEnabled {
		s.AddDependency(startup.Dependency{
			Name:  "consumer",
			Needs: []string{"processor"},
			StartFunc: func(ctx context.Context) error {
				svc.consumer = kafka.NewConsumer(cfg.Consumer(), svc.logger, svc.processor.Handle)
				return svc.consumer.Start(context.WithoutCancel(ctx))
			},
			StopFunc: func(context.Context) error { return svc.consumer.Stop() },
		})
	}

	s.AddDependency(startup.Dependency{
		Name:      "http",
		Needs:     []string{"processor"},
		StartFunc: func(context.Context) error { return svc.startServer() },
		StopFunc:  func(ctx context.Context) error { return svc.server.Shutdown(ctx) },
	})
}

func (svc *service) buildProcessor() {
	apartments := apartmentrepo.NewRepository(svc.db, svc.logger)
	transactions := transactionrepo.NewRepository(svc.db, svc.logger)
	regions := region.NewResolver(regionrepo.NewRepository(svc.db, svc.logger), svc.dongs, svc.logger)

	deps := processor.Dependencies{
		Candidates:   apartments,
		Details:      apartments,
		Regions:      regions,
		Transactions: transactions,
		Events:       svc.producer,
	}
	if svc.redis != nil {
		deps.Candidates = redis.NewCandidateCache(svc.redis, apartments, svc.cfg.CandidateCacheTTL)
		deps.Locker = redis.NewLocker(svc.redis, "")
	}

	svc.processor = processor.NewProcessor(deps, svc.matcher, svc.address, svc.cfg.Processor(), svc.logger)
}

// newContainer registers the HTTP handlers' dependencies in a container and returns its id.
func (svc *service) newContainer() (string, error) {
	containerConfig := ectoinject.DefaultContainerConfig
	containerConfig.ID = svc.cfg.AppName
	containerConfig.LoggerConfig = &ectocontainer.DIContainerLoggerConfig{
		Enabled: true,
		LogFunc: func(ctx context.Context, level, msg string) {
			if level == loglevel.WARN {
				svc.logger.WithContext(ctx).Warn(msg)
				return
			}
			svc.logger.WithContext(ctx).Debug(msg)
		},
	}

	container, err := ectoinject.NewDIContainer(containerConfig)
	if err != nil {
		return "", fmt.Errorf("failed to create dependency container: %w", err)
	}

	registrations := []error{
		ectoinject.RegisterInstance[ectologger.Logger](container, svc.logger),
		ectoinject.RegisterInstance[*matching.Matcher](container, svc.matcher),
		ectoinject.RegisterInstance[*matching.AddressMatcher](container, svc.address),
		ectoinject.RegisterInstance[*aptname.Processor](container, svc.names),
		ectoinject.RegisterInstance[*dongname.Processor](container, svc.dongs),
		ectoinject.RegisterInstance[match.Rematcher](container, svc.processor),
	}
	if err := errors.Join(registrations...); err != nil {
		return "", fmt.Errorf("failed to register dependencies: %w", err)
	}
	return containerConfig.ID, nil
}

func (svc *service) startServer() error {
	cfg := svc.cfg

	containerID, err := svc.newContainer()
	if err != nil {
		return err
	}

	checks := map[string]health.Pinger{
		"database": health.PingFunc(svc.db.PingContext),
	}
	if svc.redis != nil {
		checks["redis"] = svc.redis
	}
	svc.checker = health.NewChecker(version, checks)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(svc.logger)
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Container(containerID))
	e.Use(middleware.Logger(svc.logger))

	svc.checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	match.Register(e.Group("/api/v1"))

	svc.server = e

	addr := fmt.Sprintf(":%d", cfg.Port)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			svc.logger.WithError(err).Error("http server stopped")
		}
	}()
	svc.logger.Infof("listening on %s", addr)
	return nil
}

func (svc *service) reportCacheSizes(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		metrics.SetNameCacheEntries("aptname", svc.nameCache.Len())
		metrics.SetNameCacheEntries("dongname", svc.dongCache.Len())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
