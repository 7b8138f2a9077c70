package httpadapter

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/PabloGalante/idefend/internal/observability"
)

const headerRequestID = "X-Request-ID"

// withRequestLogging tags every request with a request_id and logs it once
// it completes.
func withRequestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			reqID := req.Header.Get(headerRequestID)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Response().Header().Set(headerRequestID, reqID)
			c.SetRequest(req.WithContext(observability.WithRequestID(req.Context(), reqID)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			observability.LoggerFromContext(c.Request().Context()).Infow("http request",
				"method", req.Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"elapsed_ms", time.Since(start).Milliseconds())
			return nil
		}
	}
}

// withCORS leaves the API open to any web front-end.
func withCORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, headerRequestID},
	})
}
