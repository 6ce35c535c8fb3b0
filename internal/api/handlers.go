package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/alwaisy/keyinsights-backend/internal/domain/entity"
	"github.com/alwaisy/keyinsights-backend/internal/infra/youtube"
)

type createVideoRequest struct {
	VideoID string `json:"video_id"`
	URL     string `json:"url"`
	Model   string `json:"model"`
}

type createVideoResponse struct {
	RequestID string           `json:"request_id"`
	VideoID   string           `json:"video_id"`
	Status    entity.JobStatus `json:"status"`
	Message   string           `json:"message"`
}

type errorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

type pendingResponse struct {
	RequestID string           `json:"request_id"`
	Status    entity.JobStatus `json:"status"`
	Progress  float64          `json:"progress"`
	Message   string           `json:"message"`
}

// handleCreateVideo admits, registers and dispatches a job, returning before
// any processing starts. Input and admission errors never create a job.
func (s *Server) handleCreateVideo(c echo.Context) error {
	req := &createVideoRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:     "invalid request body",
			ErrorCode: "invalid_request",
		})
	}

	raw := req.VideoID
	if raw == "" {
		raw = req.URL
	}
	if raw == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:     "either video_id or url must be provided",
			ErrorCode: "invalid_request",
		})
	}

	videoID, err := youtube.ResolveVideoID(raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:     err.Error(),
			ErrorCode: "invalid_video_reference",
		})
	}

	model := req.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}

	job := entity.NewJob(videoID, model)
	s.dispatcher.Dispatch(job)

	s.logger.Info("job dispatched",
		zap.String("request_id", job.RequestID),
		zap.String("video_id", videoID),
		zap.String("model", model),
	)

	return c.JSON(http.StatusAccepted, createVideoResponse{
		RequestID: job.RequestID,
		VideoID:   videoID,
		Status:    job.Status,
		Message:   "Processing started, poll /status or subscribe to /ws",
	})
}

func (s *Server) handleStatus(c echo.Context) error {
	id := c.Param("id")

	job, err := s.statuses.ReadStatus(c.Request().Context(), id)
	if err != nil {
		s.logger.Warn("status read failed", zap.String("request_id", id), zap.Error(err))
	}
	if job == nil {
		return c.JSON(http.StatusNotFound, errorResponse{
			Error:     "request not found",
			ErrorCode: "request_not_found",
		})
	}

	return c.JSON(http.StatusOK, job)
}

// handleResult serves the cached result payload. Partial output (transcript
// without insights) is returned only when include_partial=true; otherwise a
// still-running or partially-failed job answers with a pending indicator.
func (s *Server) handleResult(c echo.Context) error {
	id := c.Param("id")
	includePartial := c.QueryParam("include_partial") == "true"

	rec, err := s.results.ReadResult(c.Request().Context(), id, true)
	if err != nil {
		s.logger.Warn("result read failed", zap.String("request_id", id), zap.Error(err))
	}
	if rec != nil && (rec.Final() || includePartial) {
		return c.JSON(http.StatusOK, rec)
	}

	job, err := s.statuses.ReadStatus(c.Request().Context(), id)
	if err != nil {
		s.logger.Warn("status read failed", zap.String("request_id", id), zap.Error(err))
	}
	if job == nil {
		return c.JSON(http.StatusNotFound, errorResponse{
			Error:     "request not found",
			ErrorCode: "request_not_found",
		})
	}

	return c.JSON(http.StatusAccepted, pendingResponse{
		RequestID: job.RequestID,
		Status:    job.Status,
		Progress:  job.Progress,
		Message:   job.Message,
	})
}

func (s *Server) handleLimits(c echo.Context) error {
	now := time.Now()
	d := s.limiter.Snapshot(c.Request().Context(), c.RealIP(), now)
	setRateLimitHeaders(c, d)

	secondsUntilReset := int(time.Until(d.Reset).Seconds())
	percentageUsed := 0.0
	if d.Limit > 0 {
		percentageUsed = float64(d.Count) / float64(d.Limit) * 100
	}

	return c.JSON(http.StatusOK, map[string]any{
		"current_usage":    d.Count,
		"limit":            d.Limit,
		"remaining":        d.Remaining,
		"reset_at":         d.Reset.UTC().Format(time.RFC3339),
		"reset_in_seconds": secondsUntilReset,
		"percentage_used":  percentageUsed,
	})
}
