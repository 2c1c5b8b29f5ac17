package entity

import (
	"time"

	"github.com/google/uuid"
)

type MeasurementStatus string

const (
	MeasurementStatusPending   MeasurementStatus = "PENDING"
	MeasurementStatusMeasuring MeasurementStatus = "MEASURING"
	MeasurementStatusCompleted MeasurementStatus = "COMPLETED"
	MeasurementStatusDiscarded MeasurementStatus = "DISCARDED"
	MeasurementStatusFailed    MeasurementStatus = "FAILED"
)

// Measurement is the journal row for one pipeline run of one recording.
type Measurement struct {
	ID           uuid.UUID
	TestName     string
	VideoKey     string
	ClipKey      string
	Status       MeasurementStatus
	RunTime      float64
	FrameCount   int
	ErrorMessage string
	Attempt      int
	MaxAttempts  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

func NewMeasurement(testName, videoKey string, maxAttempts int) *Measurement {
	now := time.Now().UTC()
	return &Measurement{
		ID:          uuid.New(),
		TestName:    testName,
		VideoKey:    videoKey,
		Status:      MeasurementStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (m *Measurement) MarkMeasuring() {
	m.Status = MeasurementStatusMeasuring
	m.Attempt++
	m.UpdatedAt = time.Now().UTC()
}

func (m *Measurement) MarkCompleted(clipKey string, runTime float64, frameCount int) {
	now := time.Now().UTC()
	m.Status = MeasurementStatusCompleted
	m.ClipKey = clipKey
	m.RunTime = runTime
	m.FrameCount = frameCount
	m.UpdatedAt = now
	m.CompletedAt = &now
}

// MarkDiscarded records a run that failed recording validation. Discarded
// runs are terminal and never retried.
func (m *Measurement) MarkDiscarded(reason string) {
	m.Status = MeasurementStatusDiscarded
	m.ErrorMessage = reason
	m.UpdatedAt = time.Now().UTC()
}

func (m *Measurement) MarkFailed(errMsg string) {
	m.Status = MeasurementStatusFailed
	m.ErrorMessage = errMsg
	m.UpdatedAt = time.Now().UTC()
}

func (m *Measurement) CanRetry() bool {
	return m.Attempt < m.MaxAttempts
}
