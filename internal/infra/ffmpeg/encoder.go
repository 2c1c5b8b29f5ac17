package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// Encoder re-encodes a renumbered image sequence into one clip at a fixed
// frame rate and pixel format.
type Encoder struct {
	pixFmt string
	logger *zap.Logger
}

func NewEncoder(pixFmt string, logger *zap.Logger) *Encoder {
	if pixFmt == "" {
		pixFmt = "yuv420p"
	}
	return &Encoder{pixFmt: pixFmt, logger: logger}
}

func (e *Encoder) EncodeSequence(ctx context.Context, sequencePattern string, fps int, outputPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", sequencePattern,
		"-r", fmt.Sprintf("%d", fps),
		"-pix_fmt", e.pixFmt,
		"-y",
		outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg encode error: %w, output: %s", err, string(output))
	}
	e.logger.Debug("sequence encoded",
		zap.String("pattern", sequencePattern),
		zap.String("output", outputPath),
		zap.Int("fps", fps),
	)
	return nil
}
