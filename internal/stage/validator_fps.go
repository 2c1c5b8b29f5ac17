package stage

import (
	"fmt"
	"math"

	"github.com/coolshawn/Hasal/internal/domain/entity"
	"github.com/coolshawn/Hasal/internal/domain/port"
)

const FPSValidatorName = "FPSValidator"

// FPSValidator checks that the frame rate actually achieved by the recorder
// is close enough to the nominal one. A recording captured at a drifting
// rate would skew every frame-index-to-timestamp conversion downstream.
type FPSValidator struct {
	out entity.CheckOutput
}

func NewFPSValidator() port.Validator { return &FPSValidator{} }

func (v *FPSValidator) Name() string { return FPSValidatorName }

func (v *FPSValidator) Validate(in port.ValidatorInput) bool {
	v.out = entity.CheckOutput{}
	if len(in.FrameTimes) < 2 {
		v.out.Detail = fmt.Sprintf("recording log holds %d frame timestamps, need at least 2", len(in.FrameTimes))
		return false
	}

	span := in.FrameTimes[len(in.FrameTimes)-1] - in.FrameTimes[0]
	if span <= 0 {
		v.out.Detail = "frame timestamps are not increasing"
		return false
	}
	measured := float64(len(in.FrameTimes)-1) / span
	v.out.FPS = measured

	tolerance := in.FPSTolerance
	if tolerance <= 0 {
		tolerance = 0.1
	}
	deviation := math.Abs(measured-in.NominalFPS) / in.NominalFPS
	if deviation > tolerance {
		v.out.Detail = fmt.Sprintf("measured fps %.2f deviates %.1f%% from nominal %.0f",
			measured, deviation*100, in.NominalFPS)
		return false
	}

	v.out.Passed = true
	return true
}

func (v *FPSValidator) Output() entity.CheckOutput { return v.out }
