package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo"
	"go.uber.org/zap"
)

// logRequests tags each request with an ID and logs it once completed.
func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		requestID := "req-" + uuid.NewString()
		c.Response().Header().Set(echo.HeaderXRequestID, requestID)

		// Let the error handler write the response so its status is logged.
		if err := next(c); err != nil {
			c.Error(err)
		}

		req := c.Request()
		duration := time.Since(start)
		s.logger.Debug("request completed",
			zap.String("request_id", requestID),
			zap.String("method", req.Method),
			zap.String("path", req.URL.EscapedPath()),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.RealIP()),
		)

		if duration > slowRequest {
			s.logger.Warn("slow request",
				zap.String("request_id", requestID),
				zap.String("method", req.Method),
				zap.String("path", req.URL.EscapedPath()),
				zap.Duration("duration", duration),
			)
		}
		return nil
	}
}
