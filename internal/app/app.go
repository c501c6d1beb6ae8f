package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alimikegami/e-commerce/storefront-service/config"
	circuitbreaker "github.com/alimikegami/e-commerce/storefront-service/internal/infrastructure/circuit-breaker"
	"github.com/alimikegami/e-commerce/storefront-service/internal/infrastructure/mail"
	"github.com/alimikegami/e-commerce/storefront-service/internal/infrastructure/message-queue/kafka"
	"github.com/alimikegami/e-commerce/storefront-service/internal/infrastructure/tracing"
	"github.com/alimikegami/e-commerce/storefront-service/internal/repository"
	"github.com/alimikegami/e-commerce/storefront-service/internal/service"
	"github.com/go-co-op/gocron/v2"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/sdk/trace"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	DB     *sqlx.DB
	Config *config.Config
	Server *echo.Echo

	metrics       *echo.Echo
	scheduler     gocron.Scheduler
	traceProvider *trace.TracerProvider
	producer      *kafka.Producer
}

func InitLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", tracing.ServiceName).Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger

	return logger
}

// Init wires every dependency. It must complete before Start or StopServer.
func (app *App) Init() error {
	traceProvider, err := tracing.InitTracing(app.Config.TracingConfig.CollectorHost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize tracing")
	} else {
		app.traceProvider = traceProvider
	}

	var publisher service.EventPublisher
	if app.Config.KafkaConfig.Enabled() {
		producer, err := kafka.CreateKafkaProducer(app.Config, circuitbreaker.CreateCircuitBreaker(tracing.ServiceName, circuitbreaker.DefaultSettings))
		if err != nil {
			log.Error().Err(err).Msg("Failed to connect to kafka, order events disabled")
		} else {
			app.producer = producer
			publisher = producer
		}
	}

	var mailer service.OrderMailer
	if app.Config.MailConfig.Enabled() {
		mailer = mail.CreateMailer(app.Config.MailConfig)
	}

	repos := Repositories{
		Users:   repository.CreateNewUserRepository(app.DB),
		Catalog: repository.CreateNewCatalogRepository(app.DB),
		Orders:  repository.CreateOrderRepository(app.DB),
	}

	e, services := NewServer(app.Config, repos, publisher, mailer)

	e.Use(echoprometheus.NewMiddleware(""))
	if app.Config.MetricsPort != "" {
		app.metrics = echo.New()
		app.metrics.HideBanner = true
		app.metrics.GET("/metrics", echoprometheus.NewHandler())
		go func() {
			if err := app.metrics.Start(fmt.Sprintf(":%s", app.Config.MetricsPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Failed to start metrics server")
			}
		}()
	}

	app.scheduler, err = scheduleJobs(services)
	if err != nil {
		return fmt.Errorf("scheduling jobs: %w", err)
	}
	app.scheduler.Start()

	app.Server = e
	return nil
}

// Start serves HTTP until StopServer is called.
func (app *App) Start() error {
	log.Info().Str("port", app.Config.ServicePort).Msg("Starting server")
	if err := app.Server.Start(fmt.Sprintf(":%s", app.Config.ServicePort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (app *App) StopServer() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if app.Server != nil {
		errs = append(errs, app.Server.Shutdown(ctx))
	}
	if app.metrics != nil {
		errs = append(errs, app.metrics.Shutdown(ctx))
	}
	if app.scheduler != nil {
		errs = append(errs, app.scheduler.Shutdown())
	}
	if app.producer != nil {
		errs = append(errs, app.producer.Close())
	}
	if app.traceProvider != nil {
		errs = append(errs, app.traceProvider.Shutdown(ctx))
	}

	return errors.Join(errs...)
}

func scheduleJobs(services Services) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			if _, err := services.Orders.PurgeExpiredIdempotencyKeys(context.Background()); err != nil {
				log.Error().Err(err).Str("component", "PurgeExpiredIdempotencyKeys").Msg("")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			if _, err := services.Catalog.ReconcileCategoryCounts(context.Background()); err != nil {
				log.Error().Err(err).Str("component", "ReconcileCategoryCounts").Msg("")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	return s, nil
}
