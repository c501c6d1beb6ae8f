package response

import (
	"net/http"

	"github.com/alimikegami/e-commerce/storefront-service/pkg/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
}

type ErrorResponse struct {
	Status string      `json:"status"`
	Error  string      `json:"error"`
	Errors interface{} `json:"errors,omitempty"`
}

func WriteSuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

func WriteCreatedResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, data)
}

// WriteErrorResponse hides the message of errors that are not one of the errs
// sentinels so store failures never leak to the client.
func WriteErrorResponse(c echo.Context, err error, errors interface{}) error {
	statusCode := errs.GetErrorStatusCode(err)
	resp := ErrorResponse{}
	resp.Status = "error"
	resp.Error = err.Error()
	resp.Errors = errors

	if !errs.IsKnown(err) {
		resp.Error = errs.ErrInternalServer.Error()
	}

	return c.JSON(statusCode, resp)
}

// ValidationErrors flattens validator output into field/tag pairs.
func ValidationErrors(err error) []ValidationError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}

	res := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		res = append(res, ValidationError{Field: fe.Field(), Tag: fe.Tag()})
	}

	return res
}
