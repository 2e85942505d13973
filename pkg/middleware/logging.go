package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ComplaintDesk/internal/auth"
	"ComplaintDesk/internal/pkg/logger"
)

// AccessLog writes one zap line per request. Errors are handed to the echo
// error handler first so the logged status is the one the client saw.
func AccessLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req, res := c.Request(), c.Response()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("route", c.Path()),
				zap.String("uri", req.RequestURI),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				zap.String("remote_ip", c.RealIP()),
			}
			if id, ok := auth.IdentityFrom(c); ok {
				fields = append(fields, zap.String("user_id", id.ID.Hex()))
			}
			logger.Info("request", fields...)
			return nil
		}
	}
}
