// Package stats folds completed measurement runs into persisted per-test
// records and re-aggregates them with outlier rejection once enough samples
// accumulate.
package stats

import (
	"context"
	"fmt"

	"github.com/coolshawn/Hasal/internal/domain/entity"
	"github.com/coolshawn/Hasal/internal/domain/port"
	"github.com/coolshawn/Hasal/internal/infra/metrics"
	"go.uber.org/zap"
)

// Config tunes the aggregation pass.
type Config struct {
	// Checkpoint is the retained-sample count at which outlier
	// re-aggregation triggers. Re-evaluated after every qualifying fold.
	Checkpoint int
	// Sigma is the outlier bound in standard deviations from the mean.
	Sigma float64
}

// FoldInput is one completed run to fold into a test method's record.
type FoldInput struct {
	TestName string
	TestDoc  string
	Result   *entity.RunResult
	Folder   string
	Meta     entity.RunMeta
}

// Aggregator owns the read-modify-write cycle on the results document. The
// caller must not interleave Fold calls for the same document; the worker
// serializes them behind a single consumer.
type Aggregator struct {
	results    port.ResultRepository
	status     port.StatusRepository
	checkpoint int
	sigma      float64
	logger     *zap.Logger
}

func NewAggregator(results port.ResultRepository, status port.StatusRepository, cfg Config, logger *zap.Logger) *Aggregator {
	checkpoint := cfg.Checkpoint
	if checkpoint <= 0 {
		checkpoint = 30
	}
	return &Aggregator{
		results:    results,
		status:     status,
		checkpoint: checkpoint,
		sigma:      cfg.Sigma,
		logger:     logger,
	}
}

// Fold merges one run into the persisted record for its test method. A run
// with a zero measured duration counts as an error and contributes no
// timing sample, but its event history is still recorded. A failed write of
// the results document propagates; losing aggregated history is not an
// option.
func (a *Aggregator) Fold(ctx context.Context, in FoldInput) (*entity.RunRecord, error) {
	doc, err := a.results.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}

	runTime := in.Result.RunTime()
	sample := entity.TimingSample{
		RunTime: runTime,
		SI:      in.Result.SpeedIndex,
		PSI:     in.Result.PerceptualSpeedIndex,
		Folder:  in.Folder,
		Events:  in.Result.RelativeTimes(),
	}

	rec, ok := doc[in.TestName]
	if !ok {
		rec = &entity.RunRecord{Description: in.TestDoc}
		doc[in.TestName] = rec
	}

	rec.TotalRunNo++
	rec.TotalTime += runTime
	if runTime == 0 {
		rec.ErrorNo++
		metrics.ZeroMeasurementsTotal.Inc()
	} else {
		if len(rec.TimeList) == 0 {
			rec.AvgTime = runTime
			rec.MedTime = runTime
			rec.MaxTime = runTime
			rec.MinTime = runTime
		} else {
			if runTime > rec.MaxTime {
				rec.MaxTime = runTime
			}
			if runTime < rec.MinTime {
				rec.MinTime = runTime
			}
		}
		rec.TimeList = append(rec.TimeList, sample)
	}
	rec.Detail = append(rec.Detail, in.Result.Events...)

	var det *DetectionResult
	if len(rec.TimeList) >= a.checkpoint {
		var err error
		det, err = Detect(rec.TimeList, a.sigma)
		if err != nil {
			return nil, fmt.Errorf("outlier detection: %w", err)
		}
		rec.AvgTime = det.AvgTime
		rec.MedTime = det.MedTime
		rec.StdDev = det.StdDev
		rec.TimeList = det.Retained
		rec.Outlier = append(rec.Outlier, det.Removed...)
		rec.MinTime = rec.TimeList[0].RunTime
		rec.MaxTime = rec.TimeList[len(rec.TimeList)-1].RunTime
		if len(det.Removed) > 0 {
			metrics.OutliersRejectedTotal.Add(float64(len(det.Removed)))
			a.logger.Info("outliers rejected",
				zap.String("test", in.TestName),
				zap.Int("removed", len(det.Removed)),
				zap.Float64("avg_time", det.AvgTime),
			)
		}
	}

	meta := in.Meta
	meta.SpeedIndex = in.Result.SpeedIndex
	meta.PerceptualSpeedIndex = in.Result.PerceptualSpeedIndex
	if det != nil {
		// Re-aggregation happened: the record carries the indices averaged
		// over the retained samples, not this run's own.
		meta.SpeedIndex = det.SI
		meta.PerceptualSpeedIndex = det.PSI
	}
	rec.RunMeta = meta

	if err := rec.CheckInvariant(); err != nil {
		return nil, err
	}

	if err := a.results.Persist(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist results: %w", err)
	}

	a.mirrorStatus(ctx, len(rec.TimeList))
	return rec, nil
}

// mirrorStatus updates the progress counter consumed by external tooling.
// The counter is advisory; a write failure must not fail the fold.
func (a *Aggregator) mirrorStatus(ctx context.Context, counter int) {
	rec, err := a.status.Load(ctx)
	if err != nil {
		a.logger.Warn("load status record", zap.Error(err))
		rec = &entity.StatusRecord{}
	}
	rec.TimeListCounter = counter
	if err := a.status.Persist(ctx, rec); err != nil {
		a.logger.Warn("persist status record", zap.Error(err))
	}
}
