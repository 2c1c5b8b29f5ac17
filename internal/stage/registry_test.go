package stage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/coolshawn/Hasal/internal/domain/entity"
	"github.com/coolshawn/Hasal/internal/domain/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRegistry() *Registry {
	r := NewRegistry(zap.NewNop())
	r.RegisterValidator(FPSValidatorName, NewFPSValidator)
	r.RegisterValidator(FileExistValidatorName, NewFileExistValidator)
	r.RegisterGenerator(RunTimeGeneratorName, NewRunTimeGenerator)
	r.RegisterGenerator(SpeedIndexGeneratorName, NewSpeedIndexGenerator)
	return r
}

// ninetyHz returns n frame timestamps spaced at a clean 90 fps.
func ninetyHz(n int) []float64 {
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = 100.0 + float64(i)/90.0
	}
	return ts
}

func TestUnknownUnitIsResolutionError(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	_, err := r.RunValidators(ctx, []string{"NoSuchValidator"}, port.ValidatorInput{})
	assert.ErrorIs(t, err, entity.ErrResolution)

	_, err = r.RunConverter(ctx, "NoSuchConverter", port.ConverterInput{})
	assert.ErrorIs(t, err, entity.ErrResolution)

	_, err = r.RunMatcher(ctx, "NoSuchMatcher", port.SampleMatcherInput{})
	assert.ErrorIs(t, err, entity.ErrResolution)

	_, err = r.RunGenerators(ctx, []string{"NoSuchGenerator"}, port.GeneratorInput{})
	assert.ErrorIs(t, err, entity.ErrResolution)
}

func TestRunValidatorsAllPass(t *testing.T) {
	r := newTestRegistry()
	dir := t.TempDir()
	video := filepath.Join(dir, "run.mkv")
	require.NoError(t, os.WriteFile(video, []byte("data"), 0o644))

	res, err := r.RunValidators(context.Background(),
		[]string{FPSValidatorName, FileExistValidatorName},
		port.ValidatorInput{
			FrameTimes:   ninetyHz(91),
			NominalFPS:   90,
			FPSTolerance: 0.1,
			CheckPaths:   []string{video},
		})
	require.NoError(t, err)

	assert.True(t, res.Passed)
	assert.Empty(t, res.FailedCheck)
	assert.Len(t, res.Checks, 2)
	assert.InDelta(t, 90.0, res.FPS, 0.5)
}

func TestRunValidatorsShortCircuitsOnFailure(t *testing.T) {
	r := newTestRegistry()

	// Two timestamps one second apart: 1 fps against a nominal 90.
	res, err := r.RunValidators(context.Background(),
		[]string{FPSValidatorName, FileExistValidatorName},
		port.ValidatorInput{
			FrameTimes: []float64{100.0, 101.0},
			NominalFPS: 90,
			CheckPaths: []string{"/nonexistent/run.mkv"},
		})
	require.NoError(t, err)

	assert.False(t, res.Passed)
	assert.Equal(t, FPSValidatorName, res.FailedCheck)
	// The second check never ran.
	assert.Len(t, res.Checks, 1)
	assert.NotEmpty(t, res.Checks[FPSValidatorName].Detail)
}

func TestRunValidatorsMissingFile(t *testing.T) {
	r := newTestRegistry()

	res, err := r.RunValidators(context.Background(),
		[]string{FileExistValidatorName},
		port.ValidatorInput{CheckPaths: []string{"/nonexistent/run.mkv"}})
	require.NoError(t, err)

	assert.False(t, res.Passed)
	assert.Equal(t, FileExistValidatorName, res.FailedCheck)
}

type stubGenerator struct {
	res *entity.RunResult
	err error
}

func (g *stubGenerator) GenerateResult(port.GeneratorInput, *entity.RunResult) (*entity.RunResult, error) {
	return g.res, g.err
}

func TestRunGeneratorsAccumulates(t *testing.T) {
	r := newTestRegistry()
	r.RegisterGenerator("first", func() port.Generator {
		return &stubGenerator{res: &entity.RunResult{Events: []entity.EventMark{
			{Name: entity.EventStart, TimeSeq: 1.0},
		}}}
	})
	r.RegisterGenerator("second", func() port.Generator {
		return &stubGenerator{res: &entity.RunResult{
			Events:     []entity.EventMark{{Name: entity.EventEnd, TimeSeq: 2.0}},
			SpeedIndex: 420,
		}}
	})

	res, err := r.RunGenerators(context.Background(), []string{"first", "second"}, port.GeneratorInput{})
	require.NoError(t, err)

	assert.Len(t, res.Events, 2)
	assert.Equal(t, 420.0, res.SpeedIndex)
	assert.InDelta(t, 1.0, res.RunTime(), 1e-9)
}

func TestRunGeneratorsResolvesAllBeforeRunning(t *testing.T) {
	r := newTestRegistry()
	ran := false
	r.RegisterGenerator("observed", func() port.Generator {
		ran = true
		return &stubGenerator{res: &entity.RunResult{}}
	})

	_, err := r.RunGenerators(context.Background(),
		[]string{"observed", "missing"}, port.GeneratorInput{})
	require.ErrorIs(t, err, entity.ErrResolution)
	assert.True(t, ran, "constructors run at resolution time")
}

func TestRunGeneratorsPropagatesFailure(t *testing.T) {
	r := newTestRegistry()
	boom := errors.New("boom")
	r.RegisterGenerator("broken", func() port.Generator {
		return &stubGenerator{err: boom}
	})

	_, err := r.RunGenerators(context.Background(), []string{"broken"}, port.GeneratorInput{})
	assert.ErrorIs(t, err, boom)
}
