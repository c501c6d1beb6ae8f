package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const HeaderRequestID = "X-Request-ID"

// Logger attaches a request-scoped zerolog logger carrying a request_id to the
// request context and logs one line per request.
func Logger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		requestID := c.Request().Header.Get(HeaderRequestID)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.New().String()
		}
		c.Response().Header().Set(HeaderRequestID, requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		ctx := logger.WithContext(c.Request().Context())
		c.SetRequest(c.Request().WithContext(ctx))

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		req := c.Request()
		res := c.Response()

		log.Ctx(req.Context()).Info().
			Str("method", req.Method).
			Str("endpoint", req.URL.Path).
			Int("status", res.Status).
			Int64("latency", time.Since(start).Milliseconds()).
			Msg("Request processed")

		return nil
	}
}
