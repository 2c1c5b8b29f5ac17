package port

import (
	"context"
	"image"

	"github.com/coolshawn/Hasal/internal/domain/entity"
)

// ValidatorInput carries everything any registered integrity check may need.
// Each validator reads only its own fields.
type ValidatorInput struct {
	// FrameTimes are the capture timestamps logged by the recorder, used to
	// derive the actual frame rate of the recording.
	FrameTimes []float64
	// NominalFPS is the frame rate the recorder was configured for.
	NominalFPS float64
	// FPSTolerance is the accepted relative deviation of measured from
	// nominal FPS (0.1 = ten percent).
	FPSTolerance float64
	// CheckPaths are files that must exist for the recording to be usable.
	CheckPaths []string
}

// Validator is one recording integrity check. Validate reports pass/fail;
// Output returns the check's diagnostic result afterwards, valid for the
// last Validate call only.
type Validator interface {
	Name() string
	Validate(in ValidatorInput) bool
	Output() entity.CheckOutput
}

// FrameTime binds one extracted frame to its index and wall-clock second.
type FrameTime struct {
	Path    string
	Index   int
	TimeSeq float64
}

// ConverterInput configures the frame extraction of one recording.
type ConverterInput struct {
	VideoPath     string
	OutputDir     string
	Format        string
	FPS           float64
	ExecTimestamp []float64
}

// ConverterResult is the frame↔timestamp mapping for the whole recording,
// in capture order.
type ConverterResult struct {
	Frames []FrameTime
}

// Converter materializes every frame of a recording.
type Converter interface {
	GenerateResult(ctx context.Context, in ConverterInput) (*ConverterResult, error)
}

// Sample is one reference image to locate in the frame sequence. Crop, when
// set, restricts the search to that region of each frame.
type Sample struct {
	ID   int
	Path string
	Crop *image.Rectangle
}

// MatchDescriptor is the best-matching frame for one sample. A sample with
// no acceptable match has no descriptor; absence is a normal outcome.
type MatchDescriptor struct {
	FramePath  string
	FrameIndex int
	Score      float64
}

// SampleMatcherInput names the samples and the frames to search.
type SampleMatcherInput struct {
	Samples    []Sample
	FramePaths []string
}

// SampleMatcher locates each sample's best frame.
type SampleMatcher interface {
	GenerateResult(ctx context.Context, in SampleMatcherInput) (map[int]*MatchDescriptor, error)
}

// GeneratorInput is the combined upstream output a timing generator works
// from. Generators are pure: no I/O beyond these inputs.
type GeneratorInput struct {
	Converter     *ConverterResult
	Matches       map[int]*MatchDescriptor
	FPS           float64
	ExecTimestamp []float64

	SpeedIndex           float64
	PerceptualSpeedIndex float64
}

// Generator derives event marks from the matched frames. Prior holds the
// accumulated result of earlier generators in the configured order, so a
// later generator can build derived metrics on top of a base one. A
// generator with no usable signal returns an empty result, not an error.
type Generator interface {
	GenerateResult(in GeneratorInput, prior *entity.RunResult) (*entity.RunResult, error)
}
