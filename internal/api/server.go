package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alwaisy/keyinsights-backend/internal/domain/entity"
	"github.com/alwaisy/keyinsights-backend/internal/domain/port"
	"github.com/alwaisy/keyinsights-backend/internal/hub"
	"github.com/alwaisy/keyinsights-backend/internal/ratelimit"
)

// Dispatcher starts the detached runner for a newly admitted job.
type Dispatcher interface {
	Dispatch(job *entity.Job)
}

type Server struct {
	echo        *echo.Echo
	dispatcher  Dispatcher
	statuses    port.StatusStore
	results     port.ResultStore
	transcripts port.TranscriptSource
	insights    port.InsightSource
	hub         *hub.Hub
	limiter     *ratelimit.Limiter
	upgrader    websocket.Upgrader
	logger      *zap.Logger
	cfg         ServerConfig
}

type ServerConfig struct {
	DefaultModel   string
	TranscriptLang string
}

func NewServer(
	dispatcher Dispatcher,
	statuses port.StatusStore,
	results port.ResultStore,
	transcripts port.TranscriptSource,
	insights port.InsightSource,
	h *hub.Hub,
	limiter *ratelimit.Limiter,
	logger *zap.Logger,
	cfg ServerConfig,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	s := &Server{
		echo:        e,
		dispatcher:  dispatcher,
		statuses:    statuses,
		results:     results,
		transcripts: transcripts,
		insights:    insights,
		hub:         h,
		limiter:     limiter,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
		cfg:    cfg,
	}
	e.Use(s.requestLogger)
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	// Admission control guards the routes that reach upstream services; the
	// read-only routes pass through uncounted.
	v1.POST("/videos", s.handleCreateVideo, s.rateLimitMiddleware)
	v1.POST("/transcript", s.handleTranscript, s.rateLimitMiddleware)
	v1.GET("/transcript", s.handleTranscriptFromURL, s.rateLimitMiddleware)
	v1.POST("/insights", s.handleInsights, s.rateLimitMiddleware)
	v1.GET("/status/:id", s.handleStatus)
	v1.GET("/result/:id", s.handleResult)
	v1.GET("/limits", s.handleLimits)

	s.echo.GET("/ws/:id", s.handleSubscribe)
}

func (s *Server) Start(port int) error {
	return s.echo.Start(fmt.Sprintf(":%d", port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "KeyInsights API is running",
	})
}
