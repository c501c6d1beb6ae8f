package controller

import (
	"github.com/alimikegami/e-commerce/storefront-service/internal/dto"
	"github.com/alimikegami/e-commerce/storefront-service/internal/middleware"
	"github.com/alimikegami/e-commerce/storefront-service/internal/service"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/errs"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/response"
	"github.com/labstack/echo/v4"
)

type UserController struct {
	service service.UserService
}

func CreateUserController(g *echo.Group, service service.UserService, isLoggedIn echo.MiddlewareFunc) {
	uc := UserController{
		service: service,
	}
	g.POST("/auth/register", uc.Register)
	g.POST("/auth/login", uc.Login)
	g.GET("/auth/me", uc.Me, isLoggedIn)
}

func (c *UserController) Register(e echo.Context) error {
	payload := dto.RegisterRequest{}
	if ok, err := bindAndValidate(e, "Register", &payload); !ok {
		return err
	}

	resp, err := c.service.Register(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteCreatedResponse(e, resp)
}

func (c *UserController) Login(e echo.Context) error {
	payload := dto.LoginRequest{}
	if ok, err := bindAndValidate(e, "Login", &payload); !ok {
		return err
	}

	resp, err := c.service.Login(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, resp)
}

func (c *UserController) Me(e echo.Context) error {
	user, ok := middleware.CurrentUser(e)
	if !ok {
		return response.WriteErrorResponse(e, errs.ErrNotLoggedIn, nil)
	}

	return response.WriteSuccessResponse(e, dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	})
}
