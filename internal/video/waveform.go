package video

import (
	"context"
	"fmt"
	"image"

	"github.com/coolshawn/Hasal/internal/domain/entity"
	"github.com/coolshawn/Hasal/internal/frames"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// WaveformProducer computes the frame-to-frame visual difference over a
// run's retained window. Producing a waveform prunes the frame store down
// to that window first; the discarded frames are gone for good.
type WaveformProducer struct {
	logger *zap.Logger
}

func NewWaveformProducer(logger *zap.Logger) *WaveformProducer {
	return &WaveformProducer{logger: logger}
}

// Produce requires a run bounded by both markers; anything else has no
// fluency interval to visualize.
func (p *WaveformProducer) Produce(ctx context.Context, store *frames.Store, res *entity.RunResult, videoPath string) (*entity.WaveformDocument, error) {
	start, okS := res.Find(entity.EventStart)
	end, okE := res.Find(entity.EventEnd)
	if !okS || !okE {
		return nil, fmt.Errorf("waveform needs both start and end markers, have start=%t end=%t", okS, okE)
	}

	startIdx, err := store.Index(start.FramePath)
	if err != nil {
		return nil, fmt.Errorf("locate start frame: %w", err)
	}
	endIdx, err := store.Index(end.FramePath)
	if err != nil {
		return nil, fmt.Errorf("locate end frame: %w", err)
	}
	if startIdx > endIdx {
		startIdx, endIdx = endIdx, startIdx
	}

	retained, err := store.Prune(startIdx, endIdx)
	if err != nil {
		return nil, fmt.Errorf("prune frame store: %w", err)
	}

	diffs := make([]float64, 0, len(retained)-1)
	var prev *image.NRGBA
	for i, fp := range retained {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := imaging.Open(fp)
		if err != nil {
			return nil, fmt.Errorf("open frame %s: %w", fp, err)
		}
		gray := imaging.Grayscale(img)
		if i > 0 {
			diffs = append(diffs, frameDifference(prev, gray))
		}
		prev = gray
	}

	p.logger.Debug("waveform computed",
		zap.Int("retained_frames", len(retained)),
		zap.Int("difference_points", len(diffs)),
	)
	return &entity.WaveformDocument{
		Video:   videoPath,
		Data:    diffs,
		ImgList: retained,
	}, nil
}

// frameDifference is the mean absolute grayscale delta between two frames,
// normalized to [0,1]. Differing dimensions compare as fully different.
func frameDifference(a, b *image.NRGBA) float64 {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return 1
	}
	var sum float64
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			da := float64(a.NRGBAAt(ab.Min.X+x, ab.Min.Y+y).R)
			db := float64(b.NRGBAAt(bb.Min.X+x, bb.Min.Y+y).R)
			d := da - db
			if d < 0 {
				d = -d
			}
			sum += d
		}
	}
	return sum / (255 * float64(ab.Dx()*ab.Dy()))
}
