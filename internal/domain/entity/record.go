package entity

import "fmt"

// TimingSample is one non-error run's contribution to a test method's
// statistics: the measured duration, the visual-completeness indices, the
// artifact folder it came from, and each intermediate event's offset from
// the start marker.
type TimingSample struct {
	RunTime float64            `json:"run_time"`
	SI      float64            `json:"si"`
	PSI     float64            `json:"psi"`
	Folder  string             `json:"folder"`
	Events  map[string]float64 `json:"events,omitempty"`
}

// RunMeta is the latest-run metadata overwritten on a record after every run.
type RunMeta struct {
	VideoPath            string  `json:"video_fp"`
	WebAppName           string  `json:"web_app_name"`
	SpeedIndex           float64 `json:"speed_index"`
	PerceptualSpeedIndex float64 `json:"perceptual_speed_index"`
	Revision             string  `json:"revision"`
	PkgPlatform          string  `json:"pkg_platform"`
}

// RunRecord accumulates all runs of one test method. TimeList holds the
// samples still pending the outlier pass; Outlier is append-only. Detail is
// the raw event history of every run, error runs included.
type RunRecord struct {
	Description string `json:"description,omitempty"`

	TotalRunNo int     `json:"total_run_no"`
	ErrorNo    int     `json:"error_no"`
	TotalTime  float64 `json:"total_time"`

	AvgTime float64 `json:"avg_time"`
	MedTime float64 `json:"med_time"`
	StdDev  float64 `json:"std_dev"`
	MaxTime float64 `json:"max_time"`
	MinTime float64 `json:"min_time"`

	TimeList []TimingSample `json:"time_list"`
	Outlier  []TimingSample `json:"outlier"`
	Detail   []EventMark    `json:"detail"`

	RunMeta
}

// CheckInvariant verifies that every folded run is accounted for exactly
// once: as an error, a retained sample, or a confirmed outlier.
func (r *RunRecord) CheckInvariant() error {
	if got := r.ErrorNo + len(r.TimeList) + len(r.Outlier); got != r.TotalRunNo {
		return fmt.Errorf("%w: total_run_no=%d but error_no=%d time_list=%d outlier=%d",
			ErrInvariantViolated, r.TotalRunNo, r.ErrorNo, len(r.TimeList), len(r.Outlier))
	}
	return nil
}

// ResultDocument is the persisted results file: test method name to record.
type ResultDocument map[string]*RunRecord
