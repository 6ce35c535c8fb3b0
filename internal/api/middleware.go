package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/alwaisy/keyinsights-backend/internal/infra/metrics"
	"github.com/alwaisy/keyinsights-backend/internal/ratelimit"
)

// requestLogger logs one line per request and stamps the processing time on
// the response. The request id itself comes from the RequestID middleware,
// which runs before this one.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		// Headers must be in place before the handler commits the response.
		c.Response().Before(func() {
			c.Response().Header().Set("X-Process-Time", fmt.Sprintf("%.4f", time.Since(start).Seconds()))
		})
		err := next(c)

		elapsed := time.Since(start)
		s.logger.Info("request completed",
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", elapsed),
		)
		return err
	}
}

type rateLimitExceededResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
	Remaining int64  `json:"requests_remaining"`
	ResetAt   string `json:"reset_at"`
}

// rateLimitMiddleware counts the request against the client's hourly window
// and rejects once the quota is exhausted. The advisory headers come from
// the same counter value as the admission decision.
func (s *Server) rateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		d := s.limiter.Allow(c.Request().Context(), c.RealIP(), time.Now())
		setRateLimitHeaders(c, d)

		if !d.Allowed {
			metrics.RateLimitRejectedTotal.Inc()
			return c.JSON(http.StatusTooManyRequests, rateLimitExceededResponse{
				Error:     "Rate limit exceeded. Try again later.",
				ErrorCode: "rate_limit_exceeded",
				Remaining: 0,
				ResetAt:   d.Reset.UTC().Format(time.RFC3339),
			})
		}

		return next(c)
	}
}

func setRateLimitHeaders(c echo.Context, d ratelimit.Decision) {
	h := c.Response().Header()
	h.Set("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
}
