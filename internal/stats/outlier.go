package stats

import (
	"fmt"
	"sort"

	"github.com/coolshawn/Hasal/internal/domain/entity"
	"github.com/montanaflynn/stats"
)

// DetectionResult is the outcome of one outlier re-aggregation pass over a
// full time list. Retained is sorted ascending by run time so min/max read
// from its ends; Removed holds the newly confirmed outliers in scan order.
type DetectionResult struct {
	AvgTime float64
	MedTime float64
	StdDev  float64

	Retained []entity.TimingSample
	Removed  []entity.TimingSample

	SI  float64
	PSI float64
}

// Detect classifies samples whose run time lies further than sigma standard
// deviations from the mean as outliers. The pass iterates to a fixpoint:
// after removal the retained list's own mean and deviation flag nothing, so
// re-running detection on an unchanged list removes nothing and returns the
// same retained order. Reported statistics describe the retained list.
func Detect(samples []entity.TimingSample, sigma float64) (*DetectionResult, error) {
	if sigma <= 0 {
		sigma = 2.0
	}

	retained := make([]entity.TimingSample, len(samples))
	copy(retained, samples)
	var removed []entity.TimingSample

	for len(retained) > 2 {
		mean, std, err := meanStdDev(retained)
		if err != nil {
			return nil, err
		}
		if std == 0 {
			break
		}
		kept := retained[:0:0]
		var dropped []entity.TimingSample
		for _, s := range retained {
			d := s.RunTime - mean
			if d < 0 {
				d = -d
			}
			if d > sigma*std {
				dropped = append(dropped, s)
			} else {
				kept = append(kept, s)
			}
		}
		if len(dropped) == 0 {
			break
		}
		retained = kept
		removed = append(removed, dropped...)
	}

	sort.SliceStable(retained, func(i, j int) bool {
		return retained[i].RunTime < retained[j].RunTime
	})

	res := &DetectionResult{Retained: retained, Removed: removed}
	if len(retained) > 0 {
		times := runTimes(retained)
		var err error
		if res.AvgTime, err = stats.Mean(times); err != nil {
			return nil, fmt.Errorf("mean: %w", err)
		}
		if res.MedTime, err = stats.Median(times); err != nil {
			return nil, fmt.Errorf("median: %w", err)
		}
		if res.StdDev, err = stats.StandardDeviation(times); err != nil {
			return nil, fmt.Errorf("stddev: %w", err)
		}
		res.SI = mean(retained, func(s entity.TimingSample) float64 { return s.SI })
		res.PSI = mean(retained, func(s entity.TimingSample) float64 { return s.PSI })
	}
	return res, nil
}

func meanStdDev(samples []entity.TimingSample) (float64, float64, error) {
	times := runTimes(samples)
	m, err := stats.Mean(times)
	if err != nil {
		return 0, 0, fmt.Errorf("mean: %w", err)
	}
	sd, err := stats.StandardDeviation(times)
	if err != nil {
		return 0, 0, fmt.Errorf("stddev: %w", err)
	}
	return m, sd, nil
}

func runTimes(samples []entity.TimingSample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.RunTime
	}
	return out
}

func mean(samples []entity.TimingSample, f func(entity.TimingSample) float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += f(s)
	}
	return sum / float64(len(samples))
}
