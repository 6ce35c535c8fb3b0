package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/alwaisy/keyinsights-backend/internal/domain/entity"
	"github.com/alwaisy/keyinsights-backend/internal/domain/port"
	"github.com/alwaisy/keyinsights-backend/internal/infra/metrics"
)

// ProcessVideoUseCase drives one job from pending to a terminal status:
// fetch the transcript, persist the partial output, attempt insight
// generation, persist the final (or best-effort) output. Each job has
// exactly one runner goroutine, which is the only writer of that job's
// store keys.
type ProcessVideoUseCase struct {
	statuses    port.StatusStore
	results     port.ResultStore
	transcripts port.TranscriptSource
	insights    port.InsightSource
	notifier    port.StatusNotifier
	logger      *zap.Logger
	cfg         ProcessVideoConfig
}

type ProcessVideoConfig struct {
	TranscriptLang   string
	PartialResultTTL time.Duration
	FinalResultTTL   time.Duration
	JobTimeout       time.Duration
}

func NewProcessVideoUseCase(
	statuses port.StatusStore,
	results port.ResultStore,
	transcripts port.TranscriptSource,
	insights port.InsightSource,
	notifier port.StatusNotifier,
	logger *zap.Logger,
	cfg ProcessVideoConfig,
) *ProcessVideoUseCase {
	if cfg.TranscriptLang == "" {
		cfg.TranscriptLang = "en"
	}
	if cfg.PartialResultTTL <= 0 {
		cfg.PartialResultTTL = time.Hour
	}
	if cfg.FinalResultTTL <= 0 {
		cfg.FinalResultTTL = 24 * time.Hour
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	return &ProcessVideoUseCase{
		statuses:    statuses,
		results:     results,
		transcripts: transcripts,
		insights:    insights,
		notifier:    notifier,
		logger:      logger,
		cfg:         cfg,
	}
}

// Dispatch registers the pending status record and starts the runner on a
// detached goroutine. It returns before any remote call is made; the runner
// outlives the request that created the job.
func (uc *ProcessVideoUseCase) Dispatch(job *entity.Job) {
	uc.persist(context.Background(), job)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), uc.cfg.JobTimeout)
		defer cancel()
		uc.Execute(ctx, job)
	}()
}

// Execute runs the job pipeline to a terminal status. A deferred guard
// converts any fault not handled by the two remote-call stages into a
// terminal write, so a dispatched job is never left in pending/processing.
func (uc *ProcessVideoUseCase) Execute(ctx context.Context, job *entity.Job) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessVideoUseCase.Execute")
	defer span.End()

	span.SetAttributes(
		attribute.String("job.request_id", job.RequestID),
		attribute.String("job.video_id", job.VideoID),
		attribute.String("job.model", job.Model),
	)

	log := uc.logger.With(
		zap.String("request_id", job.RequestID),
		zap.String("video_id", job.VideoID),
	)

	metrics.ActiveJobs.Inc()
	defer metrics.ActiveJobs.Dec()

	totalTimer := time.Now()
	var transcript string

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		log.Error("unexpected fault while processing job", zap.Any("panic", r))
		if job.Status.Terminal() {
			return
		}

		// The job context may already be dead; the terminal write gets its
		// own deadline.
		guardCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		errMsg := fmt.Sprintf("unexpected internal error: %v", r)
		if transcript != "" {
			uc.writeResult(guardCtx, job, transcript, "", errMsg, uc.cfg.FinalResultTTL, log)
			if err := job.MarkPartialSuccess(entity.ErrCodeInternal, errMsg); err != nil {
				log.Error("guard transition failed", zap.Error(err))
				return
			}
		} else {
			if err := job.MarkFailed(entity.ErrCodeInternal, errMsg); err != nil {
				log.Error("guard transition failed", zap.Error(err))
				return
			}
		}
		uc.persist(guardCtx, job)
		metrics.JobsProcessedTotal.WithLabelValues(string(job.Status)).Inc()
	}()

	// Stage 1: transcript fetch.
	if err := job.MarkProcessing(0.1, "Fetching video transcript"); err != nil {
		log.Error("transition failed", zap.Error(err))
		return
	}
	uc.persist(ctx, job)

	fetchTimer := time.Now()
	ctxFetch, spanFetch := tracer.Start(ctx, "fetch_transcript")
	segments, err := uc.transcripts.FetchTranscript(ctxFetch, job.VideoID, uc.cfg.TranscriptLang)
	spanFetch.End()
	metrics.JobStageDuration.WithLabelValues("transcript").Observe(time.Since(fetchTimer).Seconds())

	if err != nil {
		code := entity.ErrCodeTranscriptFetch
		if errors.Is(err, port.ErrCaptionsUnavailable) {
			code = entity.ErrCodeTranscriptUnavailable
		}
		log.Warn("transcript fetch failed", zap.String("error_code", code), zap.Error(err))
		uc.terminate(ctx, job, func() error { return job.MarkFailed(code, err.Error()) }, log)
		return
	}

	transcript = port.JoinSegments(segments)

	// The transcript is durably cached before the strictly more
	// failure-prone insight call is attempted.
	if err := job.MarkProcessing(0.5, "Transcript fetched, generating insights"); err != nil {
		log.Error("transition failed", zap.Error(err))
		return
	}
	uc.persist(ctx, job)
	uc.writeResult(ctx, job, transcript, "", "", uc.cfg.PartialResultTTL, log)

	// Stage 2: insight generation.
	genTimer := time.Now()
	ctxGen, spanGen := tracer.Start(ctx, "generate_insights")
	insights, err := uc.insights.GenerateInsights(ctxGen, job.Model, transcript)
	spanGen.End()
	metrics.JobStageDuration.WithLabelValues("insights").Observe(time.Since(genTimer).Seconds())

	if err != nil {
		code := entity.ErrCodeInsightsAPI
		if errors.Is(err, port.ErrEmptyInsights) {
			code = entity.ErrCodeInsightsEmpty
		}
		log.Warn("insight generation failed", zap.String("error_code", code), zap.Error(err))

		// This transcript-only record is the best the system will ever
		// produce for this request, so it gets the long retention.
		uc.writeResult(ctx, job, transcript, "", err.Error(), uc.cfg.FinalResultTTL, log)
		uc.terminate(ctx, job, func() error { return job.MarkPartialSuccess(code, err.Error()) }, log)
		return
	}

	// Upgrade the cached result in place under the long TTL.
	uc.writeResult(ctx, job, transcript, insights, "", uc.cfg.FinalResultTTL, log)
	uc.terminate(ctx, job, job.MarkCompleted, log)

	metrics.JobStageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())
	log.Info("job completed",
		zap.Int("transcript_len", len(transcript)),
		zap.Int("insights_len", len(insights)),
	)
}

// persist writes the full status record and fans it out to subscribers.
// Broadcast is non-blocking, so calling it inline keeps updates in write
// order without slowing the runner; subscribers get a snapshot because they
// read it after the runner has moved on.
func (uc *ProcessVideoUseCase) persist(ctx context.Context, job *entity.Job) {
	if err := uc.statuses.WriteStatus(ctx, job); err != nil {
		uc.logger.Warn("status write failed",
			zap.String("request_id", job.RequestID),
			zap.String("status", string(job.Status)),
			zap.Error(err),
		)
	}
	snapshot := *job
	uc.notifier.Broadcast(job.RequestID, &snapshot)
}

func (uc *ProcessVideoUseCase) terminate(ctx context.Context, job *entity.Job, mark func() error, log *zap.Logger) {
	if err := mark(); err != nil {
		log.Error("terminal transition failed", zap.Error(err))
		return
	}
	uc.persist(ctx, job)
	metrics.JobsProcessedTotal.WithLabelValues(string(job.Status)).Inc()
}

func (uc *ProcessVideoUseCase) writeResult(ctx context.Context, job *entity.Job, transcript, insights, errMsg string, ttl time.Duration, log *zap.Logger) {
	rec := &entity.ResultRecord{
		RequestID:   job.RequestID,
		VideoID:     job.VideoID,
		Model:       job.Model,
		Transcript:  transcript,
		Insights:    insights,
		Error:       errMsg,
		GeneratedAt: time.Now().UTC(),
	}
	if err := uc.results.WriteResult(ctx, job.RequestID, rec, ttl, true); err != nil {
		// Store failure means "proceed without caching", never a job failure.
		log.Warn("result write failed", zap.Error(err))
	}
}
