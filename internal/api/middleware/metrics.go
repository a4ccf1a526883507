package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/haitebooks/bookstore-api/internal/api/metrics"
)

// RequestMetrics records request count and latency per route. Errors are
// rendered through the echo error handler first so that the recorded status
// is the one the client sees.
func RequestMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
