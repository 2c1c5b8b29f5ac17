package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coolshawn/Hasal/internal/domain/port"
	"github.com/coolshawn/Hasal/internal/infra/config"
	"github.com/coolshawn/Hasal/internal/infra/ffmpeg"
	"github.com/coolshawn/Hasal/internal/infra/metrics"
	miniostorage "github.com/coolshawn/Hasal/internal/infra/minio"
	"github.com/coolshawn/Hasal/internal/infra/postgres"
	"github.com/coolshawn/Hasal/internal/infra/rabbitmq"
	"github.com/coolshawn/Hasal/internal/infra/tracing"
	"github.com/coolshawn/Hasal/internal/repo"
	"github.com/coolshawn/Hasal/internal/stage"
	"github.com/coolshawn/Hasal/internal/stats"
	"github.com/coolshawn/Hasal/internal/usecase"
	"github.com/coolshawn/Hasal/internal/video"
	"github.com/coolshawn/Hasal/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting hasal-measure-worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if Jaeger unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	// Migrations
	err = postgres.RunMigrations(cfg.DatabaseURL, "migrations")
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// MinIO
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:        cfg.MinIOEndpoint,
		AccessKey:       cfg.MinIOAccessKey,
		SecretKey:       cfg.MinIOSecretKey,
		UseSSL:          cfg.MinIOUseSSL,
		RecordingBucket: cfg.MinIORecordingBucket,
		SampleBucket:    cfg.MinIOSampleBucket,
		ArtifactBucket:  cfg.MinIOArtifactBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Stage registry: the closed set of pluggable units.
	registry := stage.NewRegistry(log)
	registry.RegisterValidator(stage.FPSValidatorName, stage.NewFPSValidator)
	registry.RegisterValidator(stage.FileExistValidatorName, stage.NewFileExistValidator)
	registry.RegisterConverter("FfmpegConverter", func() port.Converter { return ffmpeg.NewConverter(log) })
	registry.RegisterMatcher(stage.NCCMatcherName, func() port.SampleMatcher { return stage.NewNCCMatcher(cfg.MatchThreshold) })
	registry.RegisterGenerator(stage.RunTimeGeneratorName, stage.NewRunTimeGenerator)
	registry.RegisterGenerator(stage.SpeedIndexGeneratorName, stage.NewSpeedIndexGenerator)

	// Persistence and aggregation
	journal := postgres.NewMeasurementRepository(pool)
	resultRepo := repo.NewResultFile(cfg.ResultFile, log)
	statusRepo := repo.NewStatusFile(cfg.StatusFile)
	waveformRepo := repo.NewWaveformFile(cfg.WaveformFile)
	aggregator := stats.NewAggregator(resultRepo, statusRepo, stats.Config{
		Checkpoint: cfg.OutlierCheckpoint,
		Sigma:      cfg.OutlierSigma,
	}, log)

	// Clip and waveform production
	encoder := ffmpeg.NewEncoder(cfg.ClipPixFmt, log)
	extractor := video.NewRangeExtractor(encoder, cfg.ClipMargin, cfg.NominalFPS, log)
	waveform := video.NewWaveformProducer(log)

	// Use case
	uc := usecase.NewMeasureRunUseCase(
		journal, storage, registry, aggregator, statusRepo,
		extractor, waveform, waveformRepo,
		statusPub, dlqPub,
		log,
		usecase.MeasureRunConfig{
			TempDir:      cfg.TempDir,
			MaxRetries:   cfg.MaxRetries,
			FrameFormat:  cfg.FrameFormat,
			NominalFPS:   cfg.NominalFPS,
			FPSTolerance: cfg.FPSTolerance,
		},
	)

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	// Consumer (single worker by default: the results document demands one
	// writer at a time)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQMeasureQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("hasal-measure-worker started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("hasal-measure-worker stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
