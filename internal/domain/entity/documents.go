package entity

// CheckOutput is one validator's persisted result.
type CheckOutput struct {
	Passed bool    `json:"validate_result"`
	FPS    float64 `json:"fps,omitempty"`
	Detail string  `json:"detail,omitempty"`
}

// StatusRecord is the lightweight status document consumed by external
// progress tooling. Not required for correctness of the statistics.
type StatusRecord struct {
	FPSStat         float64                `json:"fps_stat"`
	TimeListCounter int                    `json:"time_list_counter"`
	Checks          map[string]CheckOutput `json:"checks,omitempty"`
}

// WaveformDocument holds the fluency visualization for one run: pairwise
// visual difference across the retained frame window.
type WaveformDocument struct {
	Video   string    `json:"video"`
	Data    []float64 `json:"data"`
	ImgList []string  `json:"img_list"`
}
