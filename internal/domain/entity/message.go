package entity

import "github.com/google/uuid"

// MeasureRequestMessage is the inbound message from the measure.run queue.
// It references a completed recording in storage plus everything the
// automation engine captured while driving the interaction.
type MeasureRequestMessage struct {
	JobID       uuid.UUID `json:"job_id"`
	TestName    string    `json:"test_name"`
	TestDoc     string    `json:"test_doc,omitempty"`
	CaseName    string    `json:"case_name"`
	WebAppName  string    `json:"web_app_name"`
	Revision    string    `json:"revision,omitempty"`
	PkgPlatform string    `json:"pkg_platform,omitempty"`
	VideoKey    string    `json:"video_key"`
	SampleKeys  []string  `json:"sample_keys"`

	// SampleCrops restricts a sample's search area, keyed by 1-based sample
	// ID; each value is [x0, y0, x1, y1] in frame pixels.
	SampleCrops map[int][4]int `json:"sample_crops,omitempty"`

	OutputFolder  string    `json:"output_folder"`
	ExecTimestamp []float64 `json:"exec_timestamp_list"`
	FrameTimes    []float64 `json:"frame_times"`

	// Collaborator-computed visual-completeness indices, passed through.
	SpeedIndex           float64 `json:"speed_index,omitempty"`
	PerceptualSpeedIndex float64 `json:"perceptual_speed_index,omitempty"`

	// Waveform production prunes the frame store, so it is opt-in.
	Waveform bool `json:"waveform,omitempty"`
}

// MeasureStatusMessage is the outbound message published to measure.status.
type MeasureStatusMessage struct {
	JobID        uuid.UUID         `json:"job_id"`
	TestName     string            `json:"test_name"`
	Status       MeasurementStatus `json:"status"`
	VideoKey     string            `json:"video_key"`
	ClipKey      string            `json:"clip_key,omitempty"`
	RunTime      float64           `json:"run_time,omitempty"`
	FrameCount   int               `json:"frame_count,omitempty"`
	SampleCount  int               `json:"sample_count,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Attempt      int               `json:"attempt"`
	MaxAttempts  int               `json:"max_attempts"`
}
