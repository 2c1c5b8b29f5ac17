package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/coolshawn/Hasal/internal/domain/entity"
	"github.com/coolshawn/Hasal/internal/domain/port"
	"github.com/coolshawn/Hasal/internal/frames"
	"github.com/coolshawn/Hasal/internal/infra/metrics"
	"github.com/coolshawn/Hasal/internal/stage"
	"github.com/coolshawn/Hasal/internal/stats"
	"github.com/coolshawn/Hasal/internal/video"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// MeasureRunUseCase runs the full measurement pipeline for one recorded
// interaction: validate → convert to frames → match samples → generate
// timings → fold statistics → trim clip → (optionally) waveform.
type MeasureRunUseCase struct {
	journal      port.MeasurementRepository
	storage      port.ArtifactStorage
	registry     *stage.Registry
	aggregator   *stats.Aggregator
	status       port.StatusRepository
	extractor    *video.RangeExtractor
	waveform     *video.WaveformProducer
	waveformRepo port.WaveformRepository
	publisher    port.StatusPublisher
	dlq          port.DLQPublisher
	logger       *zap.Logger
	cfg          MeasureRunConfig
}

type MeasureRunConfig struct {
	TempDir      string
	MaxRetries   int
	FrameFormat  string
	NominalFPS   int
	FPSTolerance float64

	ValidatorNames []string
	ConverterName  string
	MatcherName    string
	GeneratorNames []string
}

func NewMeasureRunUseCase(
	journal port.MeasurementRepository,
	storage port.ArtifactStorage,
	registry *stage.Registry,
	aggregator *stats.Aggregator,
	status port.StatusRepository,
	extractor *video.RangeExtractor,
	waveform *video.WaveformProducer,
	waveformRepo port.WaveformRepository,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	logger *zap.Logger,
	cfg MeasureRunConfig,
) *MeasureRunUseCase {
	if len(cfg.ValidatorNames) == 0 {
		cfg.ValidatorNames = []string{stage.FPSValidatorName, stage.FileExistValidatorName}
	}
	if cfg.ConverterName == "" {
		cfg.ConverterName = "FfmpegConverter"
	}
	if cfg.MatcherName == "" {
		cfg.MatcherName = stage.NCCMatcherName
	}
	if len(cfg.GeneratorNames) == 0 {
		cfg.GeneratorNames = []string{stage.RunTimeGeneratorName, stage.SpeedIndexGeneratorName}
	}
	return &MeasureRunUseCase{
		journal:      journal,
		storage:      storage,
		registry:     registry,
		aggregator:   aggregator,
		status:       status,
		extractor:    extractor,
		waveform:     waveform,
		waveformRepo: waveformRepo,
		publisher:    publisher,
		dlq:          dlq,
		logger:       logger,
		cfg:          cfg,
	}
}

func (uc *MeasureRunUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "MeasureRunUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.MeasureRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("measure.job_id", msg.JobID.String()),
		attribute.String("measure.test_name", msg.TestName),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("test_name", msg.TestName))

	m, err := uc.journal.FindByID(ctx, msg.JobID)
	if err != nil {
		m = entity.NewMeasurement(msg.TestName, msg.VideoKey, uc.cfg.MaxRetries)
		m.ID = msg.JobID
		if err := uc.journal.Create(ctx, m); err != nil {
			log.Error("failed to create journal row", zap.Error(err))
			return fmt.Errorf("create measurement: %w", err)
		}
	}

	if !m.CanRetry() {
		log.Warn("measurement exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, m, rawMsg, "max retries exceeded")
		return nil
	}

	m.MarkMeasuring()
	if err := uc.journal.Update(ctx, m); err != nil {
		log.Error("failed to update journal to MEASURING", zap.Error(err))
		return fmt.Errorf("update measurement: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.runPipeline(ctx, m, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.RunsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *MeasureRunUseCase) runPipeline(
	ctx context.Context,
	m *entity.Measurement,
	msg entity.MeasureRequestMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.cfg.TempDir, m.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download recording and samples
	dlStart := time.Now()
	ctxDl, spanDl := tracer.Start(ctx, "download_artifacts")
	videoPath := filepath.Join(workDir, "input.mp4")
	if err := uc.storage.DownloadRecording(ctxDl, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download recording", zap.Error(err))
		return uc.handleRetryableFailure(ctx, m, rawMsg, "download_recording: "+err.Error(), log)
	}
	samples, err := uc.downloadSamples(ctxDl, msg, workDir)
	if err != nil {
		spanDl.End()
		log.Error("failed to download samples", zap.Error(err))
		return uc.handleRetryableFailure(ctx, m, rawMsg, "download_samples: "+err.Error(), log)
	}
	spanDl.End()
	metrics.StageDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Validation gates everything that follows.
	valStart := time.Now()
	ctxVal, spanVal := tracer.Start(ctx, "validate")
	validation, err := uc.registry.RunValidators(ctxVal, uc.cfg.ValidatorNames, port.ValidatorInput{
		FrameTimes:   msg.FrameTimes,
		NominalFPS:   float64(uc.cfg.NominalFPS),
		FPSTolerance: uc.cfg.FPSTolerance,
		CheckPaths:   []string{videoPath},
	})
	spanVal.End()
	if err != nil {
		// Resolution failure: fatal before any side effect.
		return fmt.Errorf("run validators: %w", err)
	}
	metrics.StageDuration.WithLabelValues("validate").Observe(time.Since(valStart).Seconds())

	uc.persistValidationStatus(ctx, validation, log)

	if !validation.Passed {
		// Terminal for this run: the recording is unusable and the run is
		// discarded, never retried.
		log.Warn("recording validation failed, discarding run",
			zap.String("failed_check", validation.FailedCheck),
		)
		m.MarkDiscarded("validation failed: " + validation.FailedCheck)
		_ = uc.journal.Update(ctx, m)
		uc.publishStatus(ctx, m, msg, log)
		metrics.RunsProcessedTotal.WithLabelValues("discarded").Inc()
		return nil
	}

	// Convert the recording into the frame store.
	convStart := time.Now()
	ctxConv, spanConv := tracer.Start(ctx, "convert_frames")
	framesDir := filepath.Join(workDir, "frames")
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		spanConv.End()
		return fmt.Errorf("create frames dir: %w", err)
	}
	converted, err := uc.registry.RunConverter(ctxConv, uc.cfg.ConverterName, port.ConverterInput{
		VideoPath:     videoPath,
		OutputDir:     framesDir,
		Format:        uc.cfg.FrameFormat,
		FPS:           validation.FPS,
		ExecTimestamp: msg.ExecTimestamp,
	})
	spanConv.End()
	if err != nil {
		log.Error("frame conversion failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, m, rawMsg, "convert_frames: "+err.Error(), log)
	}
	metrics.StageDuration.WithLabelValues("convert").Observe(time.Since(convStart).Seconds())
	metrics.FramesExtractedTotal.Add(float64(len(converted.Frames)))

	// Locate the sample trigger frames.
	matchStart := time.Now()
	ctxMatch, spanMatch := tracer.Start(ctx, "match_samples")
	framePaths := make([]string, len(converted.Frames))
	for i, f := range converted.Frames {
		framePaths[i] = f.Path
	}
	matches, err := uc.registry.RunMatcher(ctxMatch, uc.cfg.MatcherName, port.SampleMatcherInput{
		Samples:    samples,
		FramePaths: framePaths,
	})
	spanMatch.End()
	if err != nil {
		log.Error("sample matching failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, m, rawMsg, "match_samples: "+err.Error(), log)
	}
	metrics.StageDuration.WithLabelValues("match").Observe(time.Since(matchStart).Seconds())

	// Pure combination: event marks out of matches and timestamps.
	result, err := uc.registry.RunGenerators(ctx, uc.cfg.GeneratorNames, port.GeneratorInput{
		Converter:            converted,
		Matches:              matches,
		FPS:                  validation.FPS,
		ExecTimestamp:        msg.ExecTimestamp,
		SpeedIndex:           msg.SpeedIndex,
		PerceptualSpeedIndex: msg.PerceptualSpeedIndex,
	})
	if err != nil {
		return fmt.Errorf("run generators: %w", err)
	}

	if result.Empty() {
		// No generator found a usable signal; there is nothing to fold and
		// nothing to trim.
		log.Warn("no generator produced a signal, nothing to aggregate")
		m.MarkCompleted("", 0, len(converted.Frames))
		_ = uc.journal.Update(ctx, m)
		uc.publishStatus(ctx, m, msg, log)
		return nil
	}

	// Fold this run into the persisted statistics. A write failure here is
	// fatal: aggregated history must not be lost silently.
	foldStart := time.Now()
	ctxFold, spanFold := tracer.Start(ctx, "fold_statistics")
	rec, err := uc.aggregator.Fold(ctxFold, stats.FoldInput{
		TestName: msg.TestName,
		TestDoc:  msg.TestDoc,
		Result:   result,
		Folder:   msg.OutputFolder,
		Meta: entity.RunMeta{
			VideoPath:   msg.VideoKey,
			WebAppName:  msg.WebAppName,
			Revision:    msg.Revision,
			PkgPlatform: msg.PkgPlatform,
		},
	})
	spanFold.End()
	if err != nil {
		log.Error("statistics fold failed", zap.Error(err))
		return fmt.Errorf("fold statistics: %w", err)
	}
	metrics.StageDuration.WithLabelValues("fold").Observe(time.Since(foldStart).Seconds())

	store, err := frames.Open(framesDir)
	if err != nil {
		return fmt.Errorf("open frame store: %w", err)
	}

	clipKey := uc.produceClip(ctx, m, msg, store, result, workDir, log)

	if msg.Waveform {
		uc.produceWaveform(ctx, msg, store, result, log)
	}

	runTime := result.RunTime()
	m.MarkCompleted(clipKey, runTime, len(converted.Frames))
	if err := uc.journal.Update(ctx, m); err != nil {
		log.Error("failed to update journal to COMPLETED", zap.Error(err))
		return fmt.Errorf("update measurement completed: %w", err)
	}

	uc.publishStatus(ctx, m, msg, log)

	log.Info("measurement completed",
		zap.Float64("run_time", runTime),
		zap.Int("frame_count", len(converted.Frames)),
		zap.Int("retained_samples", len(rec.TimeList)),
		zap.Int("total_run_no", rec.TotalRunNo),
	)
	return nil
}

// produceClip trims the marked window into a highlight clip and uploads it.
// Encoding failure leaves the clip absent; every other output is unaffected.
func (uc *MeasureRunUseCase) produceClip(
	ctx context.Context,
	m *entity.Measurement,
	msg entity.MeasureRequestMessage,
	store *frames.Store,
	result *entity.RunResult,
	workDir string,
	log *zap.Logger,
) string {
	clipStart := time.Now()
	ctxClip, spanClip := otel.Tracer("usecase").Start(ctx, "produce_clip")
	defer spanClip.End()

	clipPath := filepath.Join(workDir, "clip.mp4")
	produced, err := uc.extractor.Extract(ctxClip, store, result, clipPath)
	metrics.StageDuration.WithLabelValues("clip").Observe(time.Since(clipStart).Seconds())
	if err != nil {
		log.Warn("clip production failed, continuing without clip", zap.Error(err))
		return ""
	}
	if !produced {
		log.Info("run has no marked interval, no clip produced")
		return ""
	}

	clipKey := fmt.Sprintf("%s/%s.mp4", msg.CaseName, m.ID.String())
	f, err := os.Open(clipPath)
	if err != nil {
		log.Warn("open clip for upload", zap.Error(err))
		return ""
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		log.Warn("stat clip for upload", zap.Error(err))
		return ""
	}
	if err := uc.storage.UploadClip(ctxClip, clipKey, f, info.Size()); err != nil {
		log.Warn("clip upload failed", zap.Error(err))
		return ""
	}
	return clipKey
}

// produceWaveform prunes the frame store to the marked window, computes the
// fluency differences and persists them. Requires both markers; advisory
// output, so failures only log.
func (uc *MeasureRunUseCase) produceWaveform(
	ctx context.Context,
	msg entity.MeasureRequestMessage,
	store *frames.Store,
	result *entity.RunResult,
	log *zap.Logger,
) {
	if _, ok := result.Find(entity.EventStart); !ok {
		return
	}
	if _, ok := result.Find(entity.EventEnd); !ok {
		return
	}

	wfStart := time.Now()
	ctxWf, spanWf := otel.Tracer("usecase").Start(ctx, "produce_waveform")
	defer spanWf.End()

	doc, err := uc.waveform.Produce(ctxWf, store, result, msg.VideoKey)
	metrics.StageDuration.WithLabelValues("waveform").Observe(time.Since(wfStart).Seconds())
	if err != nil {
		log.Warn("waveform production failed", zap.Error(err))
		return
	}

	if err := uc.waveformRepo.Persist(ctxWf, doc); err != nil {
		log.Warn("waveform persist failed", zap.Error(err))
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		log.Warn("waveform marshal failed", zap.Error(err))
		return
	}
	wfKey := fmt.Sprintf("%s/%s_waveform.json", msg.CaseName, msg.JobID.String())
	if err := uc.storage.UploadWaveform(ctxWf, wfKey, bytes.NewReader(data), int64(len(data))); err != nil {
		log.Warn("waveform upload failed", zap.Error(err))
	}
}

func (uc *MeasureRunUseCase) downloadSamples(ctx context.Context, msg entity.MeasureRequestMessage, workDir string) ([]port.Sample, error) {
	sampleDir := filepath.Join(workDir, "samples")
	if err := os.MkdirAll(sampleDir, 0755); err != nil {
		return nil, fmt.Errorf("create sample dir: %w", err)
	}
	samples := make([]port.Sample, 0, len(msg.SampleKeys))
	for i, key := range msg.SampleKeys {
		id := i + 1
		dest := filepath.Join(sampleDir, fmt.Sprintf("sample_%d%s", id, filepath.Ext(key)))
		if err := uc.storage.DownloadSample(ctx, key, dest); err != nil {
			return nil, fmt.Errorf("download sample %s: %w", key, err)
		}
		s := port.Sample{ID: id, Path: dest}
		if crop, ok := msg.SampleCrops[id]; ok {
			r := image.Rect(crop[0], crop[1], crop[2], crop[3])
			s.Crop = &r
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// persistValidationStatus writes every check's output into the status record
// so operators can introspect the recording's measured FPS.
func (uc *MeasureRunUseCase) persistValidationStatus(ctx context.Context, validation *stage.ValidationResult, log *zap.Logger) {
	rec, err := uc.status.Load(ctx)
	if err != nil {
		rec = &entity.StatusRecord{}
	}
	rec.FPSStat = validation.FPS
	rec.Checks = validation.Checks
	if err := uc.status.Persist(ctx, rec); err != nil {
		log.Warn("persist validation status", zap.Error(err))
	}
}

func (uc *MeasureRunUseCase) handleRetryableFailure(
	ctx context.Context,
	m *entity.Measurement,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	m.MarkFailed(errMsg)
	_ = uc.journal.Update(ctx, m)

	if !m.CanRetry() {
		return uc.handlePermanentFailure(ctx, m, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(m.Attempt)).Inc()
	uc.publishStatus(ctx, m, entity.MeasureRequestMessage{}, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", m.Attempt, m.MaxAttempts, errMsg)
}

func (uc *MeasureRunUseCase) handlePermanentFailure(
	ctx context.Context,
	m *entity.Measurement,
	rawMsg []byte,
	errMsg string,
) error {
	m.MarkFailed(errMsg)
	_ = uc.journal.Update(ctx, m)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, m, entity.MeasureRequestMessage{}, uc.logger)

	metrics.RunsProcessedTotal.WithLabelValues("dlq").Inc()
	return nil
}

func (uc *MeasureRunUseCase) publishStatus(ctx context.Context, m *entity.Measurement, msg entity.MeasureRequestMessage, log *zap.Logger) {
	statusMsg := entity.MeasureStatusMessage{
		JobID:        m.ID,
		TestName:     m.TestName,
		Status:       m.Status,
		VideoKey:     m.VideoKey,
		ClipKey:      m.ClipKey,
		RunTime:      m.RunTime,
		FrameCount:   m.FrameCount,
		SampleCount:  len(msg.SampleKeys),
		ErrorMessage: m.ErrorMessage,
		Attempt:      m.Attempt,
		MaxAttempts:  m.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
