package controller

import (
	"strings"

	"github.com/alimikegami/e-commerce/storefront-service/internal/dto"
	"github.com/alimikegami/e-commerce/storefront-service/internal/middleware"
	"github.com/alimikegami/e-commerce/storefront-service/internal/service"
	pkgdto "github.com/alimikegami/e-commerce/storefront-service/pkg/dto"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/errs"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/response"
	"github.com/labstack/echo/v4"
)

const (
	HeaderIdempotencyKey    = "Idempotency-Key"
	maxIdempotencyKeyLength = 128
)

type OrderController struct {
	service service.OrderService
}

func CreateOrderController(g *echo.Group, service service.OrderService, isLoggedIn echo.MiddlewareFunc) {
	oc := OrderController{
		service: service,
	}

	orders := g.Group("/orders", isLoggedIn)
	orders.GET("", oc.GetOrders)
	orders.GET("/:id", oc.GetOrderByID)
	orders.POST("", oc.AddOrder)
	orders.PATCH("/:id/status", oc.UpdateOrderStatus, middleware.IsAdmin)
}

func (c *OrderController) AddOrder(e echo.Context) error {
	user, ok := middleware.CurrentUser(e)
	if !ok {
		return response.WriteErrorResponse(e, errs.ErrNotLoggedIn, nil)
	}

	payload := dto.OrderRequest{}
	if ok, err := bindAndValidate(e, "AddOrder", &payload); !ok {
		return err
	}

	key := strings.TrimSpace(e.Request().Header.Get(HeaderIdempotencyKey))
	if len(key) > maxIdempotencyKeyLength {
		return response.WriteErrorResponse(e, errs.ErrValidation, []response.ValidationError{{Field: HeaderIdempotencyKey, Tag: "max"}})
	}

	payload.UserID = user.ID
	payload.IdempotencyKey = key

	resp, err := c.service.AddOrder(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteCreatedResponse(e, resp)
}

func (c *OrderController) GetOrders(e echo.Context) error {
	user, ok := middleware.CurrentUser(e)
	if !ok {
		return response.WriteErrorResponse(e, errs.ErrNotLoggedIn, nil)
	}

	filter := pkgdto.Filter{}
	if ok, err := bindAndValidate(e, "GetOrders", &filter); !ok {
		return err
	}

	resp, err := c.service.GetOrders(e.Request().Context(), user, filter)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, resp)
}

func (c *OrderController) GetOrderByID(e echo.Context) error {
	user, ok := middleware.CurrentUser(e)
	if !ok {
		return response.WriteErrorResponse(e, errs.ErrNotLoggedIn, nil)
	}

	resp, err := c.service.GetOrderByID(e.Request().Context(), user, e.Param("id"))
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, resp)
}

func (c *OrderController) UpdateOrderStatus(e echo.Context) error {
	payload := dto.OrderStatusRequest{}
	if ok, err := bindAndValidate(e, "UpdateOrderStatus", &payload); !ok {
		return err
	}
	payload.ID = e.Param("id")

	resp, err := c.service.UpdateOrderStatus(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, resp)
}
