package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/alwaisy/keyinsights-backend/internal/domain/port"
	"github.com/alwaisy/keyinsights-backend/internal/infra/youtube"
)

// Synchronous single-shot routes. Unlike /videos they block the request on
// the upstream call and return the payload directly, with no job record,
// no result caching and no WebSocket trail.

type transcriptRequest struct {
	VideoID string `json:"video_id"`
}

type transcriptResponse struct {
	VideoID    string `json:"video_id"`
	Transcript string `json:"transcript"`
}

type insightsRequest struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

type insightsResponse struct {
	Insights string `json:"insights"`
}

func (s *Server) handleTranscript(c echo.Context) error {
	req := &transcriptRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:     "invalid request body",
			ErrorCode: "invalid_request",
		})
	}
	if !youtube.ValidVideoID(req.VideoID) {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:     "invalid YouTube video ID format",
			ErrorCode: "invalid_video_reference",
		})
	}
	return s.serveTranscript(c, req.VideoID)
}

func (s *Server) handleTranscriptFromURL(c echo.Context) error {
	url := c.QueryParam("url")
	if url == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:     "url query parameter is required",
			ErrorCode: "invalid_request",
		})
	}
	videoID, err := youtube.ResolveVideoID(url)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:     err.Error(),
			ErrorCode: "invalid_video_reference",
		})
	}
	return s.serveTranscript(c, videoID)
}

func (s *Server) serveTranscript(c echo.Context, videoID string) error {
	segments, err := s.transcripts.FetchTranscript(c.Request().Context(), videoID, s.cfg.TranscriptLang)
	if err != nil {
		if errors.Is(err, port.ErrCaptionsUnavailable) {
			return c.JSON(http.StatusBadRequest, errorResponse{
				Error:     err.Error(),
				ErrorCode: "transcript_unavailable",
			})
		}
		s.logger.Warn("transcript fetch failed", zap.String("video_id", videoID), zap.Error(err))
		return c.JSON(http.StatusBadGateway, errorResponse{
			Error:     err.Error(),
			ErrorCode: "transcript_fetch_error",
		})
	}

	return c.JSON(http.StatusOK, transcriptResponse{
		VideoID:    videoID,
		Transcript: port.JoinSegments(segments),
	})
}

func (s *Server) handleInsights(c echo.Context) error {
	req := &insightsRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:     "invalid request body",
			ErrorCode: "invalid_request",
		})
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:     "text must be provided",
			ErrorCode: "invalid_request",
		})
	}

	model := req.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}

	insights, err := s.insights.GenerateInsights(c.Request().Context(), model, req.Text)
	if err != nil {
		if errors.Is(err, port.ErrEmptyInsights) {
			return c.JSON(http.StatusBadGateway, errorResponse{
				Error:     err.Error(),
				ErrorCode: "insights_empty",
			})
		}
		s.logger.Warn("insight generation failed", zap.String("model", model), zap.Error(err))
		return c.JSON(http.StatusBadGateway, errorResponse{
			Error:     err.Error(),
			ErrorCode: "insights_api_error",
		})
	}

	return c.JSON(http.StatusOK, insightsResponse{Insights: insights})
}
