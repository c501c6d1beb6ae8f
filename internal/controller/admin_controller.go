package controller

import (
	"github.com/alimikegami/e-commerce/storefront-service/internal/middleware"
	"github.com/alimikegami/e-commerce/storefront-service/internal/service"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/response"
	"github.com/labstack/echo/v4"
)

type AdminController struct {
	users     service.UserService
	analytics service.AnalyticsService
}

func CreateAdminController(g *echo.Group, users service.UserService, analytics service.AnalyticsService, isLoggedIn echo.MiddlewareFunc) {
	ac := AdminController{
		users:     users,
		analytics: analytics,
	}

	g.GET("/customers", ac.GetCustomers, isLoggedIn, middleware.IsAdmin)
	g.GET("/analytics", ac.GetAnalytics, isLoggedIn, middleware.IsAdmin)
}

func (c *AdminController) GetCustomers(e echo.Context) error {
	resp, err := c.users.GetCustomers(e.Request().Context())
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, resp)
}

func (c *AdminController) GetAnalytics(e echo.Context) error {
	resp, err := c.analytics.GetAnalytics(e.Request().Context())
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, resp)
}
