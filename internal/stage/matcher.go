package stage

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/coolshawn/Hasal/internal/domain/port"
	"github.com/disintegration/imaging"
)

const NCCMatcherName = "NCCMatcher"

// NCCMatcher locates each reference sample's best frame by normalized cross
// correlation over grayscale pixels. A sample's crop region restricts the
// compared area of every frame. A sample scoring below the threshold on all
// frames simply has no descriptor; the generator treats absence as a normal
// outcome.
type NCCMatcher struct {
	threshold float64
}

func NewNCCMatcher(threshold float64) port.SampleMatcher {
	if threshold <= 0 {
		threshold = 0.9
	}
	return &NCCMatcher{threshold: threshold}
}

func (m *NCCMatcher) GenerateResult(ctx context.Context, in port.SampleMatcherInput) (map[int]*port.MatchDescriptor, error) {
	result := make(map[int]*port.MatchDescriptor, len(in.Samples))
	for _, sample := range in.Samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tmpl, err := imaging.Open(sample.Path)
		if err != nil {
			return nil, fmt.Errorf("open sample %d: %w", sample.ID, err)
		}
		tmplGray := imaging.Grayscale(tmpl)

		bestIdx, bestScore := -1, -1.0
		for i, fp := range in.FramePaths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			frame, err := imaging.Open(fp)
			if err != nil {
				return nil, fmt.Errorf("open frame %s: %w", fp, err)
			}
			area := frame
			if sample.Crop != nil {
				area = imaging.Crop(frame, *sample.Crop)
			}
			score := correlate(tmplGray, imaging.Grayscale(area))
			if score > bestScore {
				bestIdx, bestScore = i, score
			}
		}

		if bestIdx >= 0 && bestScore >= m.threshold {
			result[sample.ID] = &port.MatchDescriptor{
				FramePath:  in.FramePaths[bestIdx],
				FrameIndex: bestIdx,
				Score:      bestScore,
			}
		}
	}
	return result, nil
}

// correlate computes the normalized cross correlation of two grayscale
// images. The candidate area is resized to the template's size first, so
// crop regions need not match the sample's dimensions exactly.
func correlate(tmpl, area *image.NRGBA) float64 {
	tb := tmpl.Bounds()
	w, h := tb.Dx(), tb.Dy()
	if w == 0 || h == 0 {
		return -1
	}
	if ab := area.Bounds(); ab.Dx() != w || ab.Dy() != h {
		area = imaging.Resize(area, w, h, imaging.Lanczos)
	}

	n := float64(w * h)
	var sumT, sumA float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sumT += float64(tmpl.NRGBAAt(tb.Min.X+x, tb.Min.Y+y).R)
			sumA += float64(area.NRGBAAt(x, y).R)
		}
	}
	meanT, meanA := sumT/n, sumA/n

	var cov, varT, varA float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dt := float64(tmpl.NRGBAAt(tb.Min.X+x, tb.Min.Y+y).R) - meanT
			da := float64(area.NRGBAAt(x, y).R) - meanA
			cov += dt * da
			varT += dt * dt
			varA += da * da
		}
	}
	if varT <= 1e-9 || varA <= 1e-9 {
		// Flat images: identical means count as a perfect match.
		if math.Abs(meanT-meanA) < 1e-9 {
			return 1
		}
		return 0
	}
	return cov / math.Sqrt(varT*varA)
}
