package stage

import (
	"github.com/coolshawn/Hasal/internal/domain/entity"
	"github.com/coolshawn/Hasal/internal/domain/port"
)

const (
	RunTimeGeneratorName    = "RunTimeGenerator"
	SpeedIndexGeneratorName = "SpeedIndexGenerator"
)

// Sample IDs carry event semantics by convention: the first reference sample
// marks the start of the interaction, the second its completion.
const (
	StartSampleID = 1
	EndSampleID   = 2
)

// RunTimeGenerator turns the matched start/end frames into event marks with
// wall-clock timestamps. It is pure: all information comes from its input.
type RunTimeGenerator struct{}

func NewRunTimeGenerator() port.Generator { return &RunTimeGenerator{} }

func (g *RunTimeGenerator) GenerateResult(in port.GeneratorInput, _ *entity.RunResult) (*entity.RunResult, error) {
	res := &entity.RunResult{}
	if in.Converter == nil || len(in.Converter.Frames) == 0 {
		return res, nil
	}

	if mark, ok := g.markFor(in, StartSampleID, entity.EventStart); ok {
		res.Events = append(res.Events, mark)
	}
	if mark, ok := g.markFor(in, EndSampleID, entity.EventEnd); ok {
		res.Events = append(res.Events, mark)
	}
	return res, nil
}

func (g *RunTimeGenerator) markFor(in port.GeneratorInput, sampleID int, event string) (entity.EventMark, bool) {
	match, ok := in.Matches[sampleID]
	if !ok || match == nil {
		return entity.EventMark{}, false
	}
	if match.FrameIndex < 0 || match.FrameIndex >= len(in.Converter.Frames) {
		return entity.EventMark{}, false
	}
	frame := in.Converter.Frames[match.FrameIndex]
	return entity.EventMark{
		Name:      event,
		TimeSeq:   frame.TimeSeq,
		FramePath: frame.Path,
		ImagePath: match.FramePath,
	}, true
}

// SpeedIndexGenerator attaches the collaborator-computed visual-completeness
// indices to a run that the base generator already bounded with start and
// end marks. With no such interval the indices are meaningless and the
// generator contributes nothing.
type SpeedIndexGenerator struct{}

func NewSpeedIndexGenerator() port.Generator { return &SpeedIndexGenerator{} }

func (g *SpeedIndexGenerator) GenerateResult(in port.GeneratorInput, prior *entity.RunResult) (*entity.RunResult, error) {
	res := &entity.RunResult{}
	if prior == nil {
		return res, nil
	}
	if _, ok := prior.Find(entity.EventStart); !ok {
		return res, nil
	}
	if _, ok := prior.Find(entity.EventEnd); !ok {
		return res, nil
	}
	res.SpeedIndex = in.SpeedIndex
	res.PerceptualSpeedIndex = in.PerceptualSpeedIndex
	return res, nil
}
