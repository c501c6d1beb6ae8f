package controller

import (
	"github.com/alimikegami/e-commerce/storefront-service/internal/dto"
	"github.com/alimikegami/e-commerce/storefront-service/internal/middleware"
	"github.com/alimikegami/e-commerce/storefront-service/internal/service"
	pkgdto "github.com/alimikegami/e-commerce/storefront-service/pkg/dto"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/response"
	"github.com/labstack/echo/v4"
)

type CatalogController struct {
	service service.CatalogService
}

func CreateCatalogController(g *echo.Group, service service.CatalogService, isLoggedIn echo.MiddlewareFunc) {
	cc := CatalogController{
		service: service,
	}

	g.GET("/categories", cc.GetCategories)
	g.POST("/categories", cc.AddCategory, isLoggedIn, middleware.IsAdmin)
	g.POST("/categories/reconcile", cc.ReconcileCategoryCounts, isLoggedIn, middleware.IsAdmin)
	g.PATCH("/categories/:id", cc.UpdateCategory, isLoggedIn, middleware.IsAdmin)
	g.DELETE("/categories/:id", cc.DeleteCategory, isLoggedIn, middleware.IsAdmin)

	g.GET("/products", cc.GetProducts)
	g.GET("/products/:id", cc.GetProductByID)
	g.POST("/products", cc.AddProduct, isLoggedIn, middleware.IsAdmin)
	g.PATCH("/products/:id", cc.UpdateProduct, isLoggedIn, middleware.IsAdmin)
	g.DELETE("/products/:id", cc.DeleteProduct, isLoggedIn, middleware.IsAdmin)
}

func (c *CatalogController) GetCategories(e echo.Context) error {
	resp, err := c.service.GetCategories(e.Request().Context())
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, resp)
}

func (c *CatalogController) AddCategory(e echo.Context) error {
	payload := dto.CategoryRequest{}
	if ok, err := bindAndValidate(e, "AddCategory", &payload); !ok {
		return err
	}

	resp, err := c.service.AddCategory(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteCreatedResponse(e, resp)
}

func (c *CatalogController) UpdateCategory(e echo.Context) error {
	payload := dto.CategoryUpdateRequest{}
	if ok, err := bindAndValidate(e, "UpdateCategory", &payload); !ok {
		return err
	}
	payload.ID = e.Param("id")

	resp, err := c.service.UpdateCategory(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, resp)
}

func (c *CatalogController) DeleteCategory(e echo.Context) error {
	err := c.service.DeleteCategory(e.Request().Context(), e.Param("id"))
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, response.SuccessResponse{Success: true})
}

func (c *CatalogController) ReconcileCategoryCounts(e echo.Context) error {
	resp, err := c.service.ReconcileCategoryCounts(e.Request().Context())
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, resp)
}

func (c *CatalogController) GetProducts(e echo.Context) error {
	filter := pkgdto.Filter{}
	if ok, err := bindAndValidate(e, "GetProducts", &filter); !ok {
		return err
	}

	resp, err := c.service.GetProducts(e.Request().Context(), filter)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, resp)
}

func (c *CatalogController) GetProductByID(e echo.Context) error {
	resp, err := c.service.GetProductByID(e.Request().Context(), e.Param("id"))
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, resp)
}

func (c *CatalogController) AddProduct(e echo.Context) error {
	payload := dto.ProductRequest{}
	if ok, err := bindAndValidate(e, "AddProduct", &payload); !ok {
		return err
	}

	resp, err := c.service.AddProduct(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteCreatedResponse(e, resp)
}

func (c *CatalogController) UpdateProduct(e echo.Context) error {
	payload := dto.ProductUpdateRequest{}
	if ok, err := bindAndValidate(e, "UpdateProduct", &payload); !ok {
		return err
	}
	payload.ID = e.Param("id")

	resp, err := c.service.UpdateProduct(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, resp)
}

func (c *CatalogController) DeleteProduct(e echo.Context) error {
	err := c.service.DeleteProduct(e.Request().Context(), e.Param("id"))
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, response.SuccessResponse{Success: true})
}
