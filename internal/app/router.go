package app

import (
	"fmt"

	"github.com/alimikegami/e-commerce/storefront-service/config"
	"github.com/alimikegami/e-commerce/storefront-service/internal/controller"
	"github.com/alimikegami/e-commerce/storefront-service/internal/infrastructure/tracing"
	"github.com/alimikegami/e-commerce/storefront-service/internal/middleware"
	"github.com/alimikegami/e-commerce/storefront-service/internal/repository"
	"github.com/alimikegami/e-commerce/storefront-service/internal/service"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/response"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/otel"
)

type Repositories struct {
	Users   repository.UserRepository
	Catalog repository.CatalogRepository
	Orders  repository.OrderRepository
}

type Services struct {
	Users     service.UserService
	Catalog   service.CatalogService
	Orders    service.OrderService
	Analytics service.AnalyticsService
}

// NewServer builds the HTTP API on top of repos. publisher and mailer may be
// nil.
func NewServer(conf *config.Config, repos Repositories, publisher service.EventPublisher, mailer service.OrderMailer) (*echo.Echo, Services) {
	services := Services{
		Users:     service.CreateNewUserService(repos.Users, conf.JWTConfig),
		Catalog:   service.CreateNewCatalogService(repos.Catalog),
		Orders:    service.CreateOrderService(repos.Orders, publisher, mailer, conf.IdempotencyKeyTTL),
		Analytics: service.CreateAnalyticsService(repos.Orders, repos.Users, repos.Catalog),
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = controller.NewRequestValidator()

	tracer := otel.Tracer(tracing.ServiceName)
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracer.Start(c.Request().Context(), fmt.Sprintf("[%s] %s", c.Request().Method, c.Path()))
			defer span.End()

			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	})
	e.Use(middleware.Logger)
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit("1M"))

	g := e.Group("/api")
	g.GET("/ping", func(c echo.Context) error {
		return response.WriteSuccessResponse(c, response.SuccessResponse{Success: true})
	})

	isLoggedIn := middleware.IsLoggedIn(conf.JWTConfig.JWTSecret, services.Users)

	controller.CreateUserController(g, services.Users, isLoggedIn)
	controller.CreateCatalogController(g, services.Catalog, isLoggedIn)
	controller.CreateOrderController(g, services.Orders, isLoggedIn)
	controller.CreateAdminController(g, services.Users, services.Analytics, isLoggedIn)

	return e, services
}
