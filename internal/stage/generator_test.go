package stage

import (
	"testing"

	"github.com/coolshawn/Hasal/internal/domain/entity"
	"github.com/coolshawn/Hasal/internal/domain/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func converterFrames(n int, fps float64) *port.ConverterResult {
	res := &port.ConverterResult{Frames: make([]port.FrameTime, n)}
	for i := 0; i < n; i++ {
		res.Frames[i] = port.FrameTime{
			Path:    "image_" + string(rune('a'+i)) + ".bmp",
			Index:   i,
			TimeSeq: 100.0 + float64(i)/fps,
		}
	}
	return res
}

func TestRunTimeGeneratorMarksBothEvents(t *testing.T) {
	g := NewRunTimeGenerator()
	in := port.GeneratorInput{
		Converter: converterFrames(10, 90),
		Matches: map[int]*port.MatchDescriptor{
			StartSampleID: {FrameIndex: 2, FramePath: "sample_1.png", Score: 0.98},
			EndSampleID:   {FrameIndex: 7, FramePath: "sample_2.png", Score: 0.95},
		},
	}

	res, err := g.GenerateResult(in, &entity.RunResult{})
	require.NoError(t, err)

	start, ok := res.Find(entity.EventStart)
	require.True(t, ok)
	end, ok := res.Find(entity.EventEnd)
	require.True(t, ok)

	assert.InDelta(t, 5.0/90.0, end.TimeSeq-start.TimeSeq, 1e-9)
	assert.Equal(t, in.Converter.Frames[2].Path, start.FramePath)
	assert.Equal(t, "sample_1.png", start.ImagePath)
}

func TestRunTimeGeneratorAbsentMatchContributesNothing(t *testing.T) {
	g := NewRunTimeGenerator()
	in := port.GeneratorInput{
		Converter: converterFrames(10, 90),
		Matches: map[int]*port.MatchDescriptor{
			StartSampleID: {FrameIndex: 2},
		},
	}

	res, err := g.GenerateResult(in, &entity.RunResult{})
	require.NoError(t, err)

	_, ok := res.Find(entity.EventStart)
	assert.True(t, ok)
	_, ok = res.Find(entity.EventEnd)
	assert.False(t, ok)
	assert.Zero(t, res.RunTime())
}

func TestRunTimeGeneratorIgnoresOutOfRangeIndex(t *testing.T) {
	g := NewRunTimeGenerator()
	in := port.GeneratorInput{
		Converter: converterFrames(3, 90),
		Matches: map[int]*port.MatchDescriptor{
			StartSampleID: {FrameIndex: 99},
		},
	}

	res, err := g.GenerateResult(in, &entity.RunResult{})
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestRunTimeGeneratorNoFrames(t *testing.T) {
	g := NewRunTimeGenerator()

	res, err := g.GenerateResult(port.GeneratorInput{}, &entity.RunResult{})
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestSpeedIndexGeneratorNeedsBoundedRun(t *testing.T) {
	g := NewSpeedIndexGenerator()
	in := port.GeneratorInput{SpeedIndex: 812, PerceptualSpeedIndex: 640}

	// No prior marks: the indices have no interval to describe.
	res, err := g.GenerateResult(in, &entity.RunResult{})
	require.NoError(t, err)
	assert.Zero(t, res.SpeedIndex)

	// Start only is still unbounded.
	prior := &entity.RunResult{Events: []entity.EventMark{
		{Name: entity.EventStart, TimeSeq: 1.0},
	}}
	res, err = g.GenerateResult(in, prior)
	require.NoError(t, err)
	assert.Zero(t, res.SpeedIndex)

	prior.Events = append(prior.Events, entity.EventMark{Name: entity.EventEnd, TimeSeq: 2.0})
	res, err = g.GenerateResult(in, prior)
	require.NoError(t, err)
	assert.Equal(t, 812.0, res.SpeedIndex)
	assert.Equal(t, 640.0, res.PerceptualSpeedIndex)
}
