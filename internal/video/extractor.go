// Package video turns a run's marked frame window into a trimmed highlight
// clip and a frame-to-frame fluency waveform.
package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coolshawn/Hasal/internal/domain/entity"
	"github.com/coolshawn/Hasal/internal/domain/port"
	"github.com/coolshawn/Hasal/internal/frames"
	"go.uber.org/zap"
)

// RangeExtractor copies the marked frame window, expanded by a margin and
// clamped to the store, into a scratch sequence and hands it to the encoder.
type RangeExtractor struct {
	encoder port.ClipEncoder
	margin  int
	fps     int
	logger  *zap.Logger
}

// NewRangeExtractor builds an extractor. A non-positive margin defaults to
// one second of frames on each side of the marked interval.
func NewRangeExtractor(encoder port.ClipEncoder, marginFrames, fps int, logger *zap.Logger) *RangeExtractor {
	if marginFrames <= 0 {
		marginFrames = fps
	}
	return &RangeExtractor{encoder: encoder, margin: marginFrames, fps: fps, logger: logger}
}

// Extract produces the trimmed clip at outputPath. A run missing either
// marker has no measurable interval and produces no clip; that is not an
// error. The scratch sequence is removed whether encoding succeeds or fails.
func (e *RangeExtractor) Extract(ctx context.Context, store *frames.Store, res *entity.RunResult, outputPath string) (bool, error) {
	start, okS := res.Find(entity.EventStart)
	end, okE := res.Find(entity.EventEnd)
	if !okS || !okE {
		return false, nil
	}

	startIdx, err := store.Index(start.FramePath)
	if err != nil {
		return false, fmt.Errorf("locate start frame: %w", err)
	}
	endIdx, err := store.Index(end.FramePath)
	if err != nil {
		return false, fmt.Errorf("locate end frame: %w", err)
	}
	lo, hi := store.Window(startIdx, endIdx, e.margin)

	scratch, err := os.MkdirTemp("", "clip-seq-")
	if err != nil {
		return false, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	copied, err := store.CopyWindow(lo, hi, scratch)
	if err != nil {
		return false, fmt.Errorf("copy frame window: %w", err)
	}

	ext := filepath.Ext(copied[0])
	pattern := filepath.Join(scratch, "%05d"+ext)
	if err := e.encoder.EncodeSequence(ctx, pattern, e.fps, outputPath); err != nil {
		return false, fmt.Errorf("encode clip: %w", err)
	}

	e.logger.Info("trimmed clip produced",
		zap.String("clip", outputPath),
		zap.Int("frames", len(copied)),
		zap.Int("window_lo", lo),
		zap.Int("window_hi", hi),
	)
	return true, nil
}
