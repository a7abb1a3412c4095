package middleware

import (
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/appctx"
)

// Logger logs one line per request after the handler (and error handler) ran.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			logger.WithContext(req.Context()).WithFields(map[string]any{
				"request_id":    appctx.GetRequestID(req.Context()),
				"method":        req.Method,
				"uri":           req.RequestURI,
				"route":         c.Path(),
				"status":        res.Status,
				"remote_ip":     c.RealIP(),
				"user_agent":    req.UserAgent(),
				"response_time": time.Since(start).String(),
				"response_size": res.Size,
			}).Info("Request")

			return nil
		}
	}
}
