package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/alimikegami/e-commerce/storefront-service/internal/domain"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/errs"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/response"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/utils"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const userContextKey = "user"

// UserFinder resolves a token subject to a live account. It returns
// errs.ErrNotFound once the account is gone.
type UserFinder interface {
	GetUserByID(ctx context.Context, id string) (user domain.User, err error)
}

// IsLoggedIn requires a valid bearer token whose subject still exists. Every
// credential failure is answered with 401.
func IsLoggedIn(jwtSecret string, users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				return response.WriteErrorResponse(c, errs.ErrNotLoggedIn, nil)
			}

			claims, err := utils.ParseJWTToken(strings.TrimSpace(token), jwtSecret)
			if err != nil {
				return response.WriteErrorResponse(c, errs.ErrInvalidToken, nil)
			}

			ctx := c.Request().Context()
			user, err := users.GetUserByID(ctx, claims.ID)
			if errors.Is(err, errs.ErrNotFound) {
				return response.WriteErrorResponse(c, errs.ErrInvalidToken, nil)
			}
			if err != nil {
				log.Ctx(ctx).Error().Err(err).Str("component", "IsLoggedIn").Msg("")
				return response.WriteErrorResponse(c, err, nil)
			}

			logger := log.Ctx(ctx).With().Str("user_id", user.ID).Logger()
			c.SetRequest(c.Request().WithContext(logger.WithContext(ctx)))
			c.Set(userContextKey, user)

			return next(c)
		}
	}
}

// IsAdmin must run after IsLoggedIn.
func IsAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := CurrentUser(c)
		if !ok {
			return response.WriteErrorResponse(c, errs.ErrNotLoggedIn, nil)
		}

		if !user.IsAdmin() {
			return response.WriteErrorResponse(c, errs.ErrForbidden, nil)
		}

		return next(c)
	}
}

func CurrentUser(c echo.Context) (domain.User, bool) {
	user, ok := c.Get(userContextKey).(domain.User)
	return user, ok
}
