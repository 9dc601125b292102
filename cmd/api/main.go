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

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/repositories/linkrun"
	recordrepo "github.com/Ramsey-B/clover/internal/repositories/record"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/graph"
	"github.com/Ramsey-B/clover/pkg/kafka"
	linkagesvc "github.com/Ramsey-B/clover/pkg/linkage"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/processor"
	healthroutes "github.com/Ramsey-B/clover/pkg/routes/health"
	linkageroutes "github.com/Ramsey-B/clover/pkg/routes/linkage"
	recordroutes "github.com/Ramsey-B/clover/pkg/routes/record"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	// Tracing
	tracerProvider := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tracerProvider)
	tracing.SetTracer(tracerProvider.Tracer(cfg.AppName))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracerProvider.Shutdown(shutdownCtx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.Connect(ctx, database.ConnectConfig{
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.DatabaseName, database.MigrationConfig{
		FolderPath: cfg.DatabaseMigrationFolderPath,
		Version:    uint(cfg.DatabaseMigrationVersion),
		Force:      cfg.DatabaseMigrationForce,
	}, logger); err != nil {
		return err
	}

	// Repositories
	recordRepository := recordrepo.NewRepository(db, logger)
	runRepository := linkrun.NewRepository(db, logger)

	// Kafka
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
	defer producer.Close()
	emitter := events.NewEmitter(producer, logger)

	// Graph export
	var clusterService *graph.ClusterService
	if cfg.GraphExportEnabled {
		graphClient, err := graph.NewClient(graph.Config{
			Host:     cfg.GraphDBHost,
			Port:     cfg.GraphDBPort,
			Username: cfg.GraphDBUser,
			Password: cfg.GraphDBPassword,
		}, logger)
		if err != nil {
			return err
		}
		defer graphClient.Close(ctx)
		clusterService = graph.NewClusterService(graphClient, logger)
	}

	linkService := linkagesvc.NewService(logger, recordRepository, runRepository, emitter, clusterService)

	// Dependency injection container for route handlers
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return fmt.Errorf("failed to create DI container: %w", err)
	}
	if err := ectoinject.RegisterInstance[database.DB](container, db); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*recordrepo.Repository](container, recordRepository); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*linkrun.Repository](container, runRepository); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*linkagesvc.Service](container, linkService); err != nil {
		return err
	}

	// Record ingestion
	if cfg.KafkaConsumerEnabled {
		ingest := processor.New(kafka.ConsumerConfig{
			Brokers:       cfg.KafkaBrokers,
			Topic:         cfg.KafkaInputTopic,
			ConsumerGroup: cfg.KafkaConsumerGroup,
		}, logger, recordRepository)
		if err := ingest.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := ingest.Stop(); err != nil {
				logger.WithError(err).Warn("Failed to stop ingestion processor")
			}
		}()
	}

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	checker := healthroutes.NewChecker(db, "1.0.0")
	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	recordroutes.Register(api.Group("/records"))
	linkageroutes.Register(api.Group("/linkage"))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shut down server")
		}
	}()

	checker.SetReady(true)
	logger.WithFields(map[string]any{"port": cfg.Port}).Info("Starting server")

	if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newLogger(cfg config.Config) (ectologger.Logger, error) {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}
