package controller

import (
	"errors"
	"fmt"

	"github.com/alimikegami/e-commerce/storefront-service/pkg/errs"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/response"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// RequestValidator plugs go-playground/validator into echo.
type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validator: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *RequestValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

// bindAndValidate writes the 400 response itself and reports whether the
// handler may continue.
func bindAndValidate(e echo.Context, component string, payload interface{}) (ok bool, err error) {
	if err := e.Bind(payload); err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", component).Msg("")
		return false, response.WriteErrorResponse(e, fmt.Errorf("%s: %w", bindMessage(err), errs.ErrClient), nil)
	}

	if err := e.Validate(payload); err != nil {
		return false, response.WriteErrorResponse(e, errs.ErrValidation, response.ValidationErrors(err))
	}

	return true, nil
}

func bindMessage(err error) string {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if msg, ok := httpErr.Message.(string); ok {
			return msg
		}
	}
	return "malformed request"
}
