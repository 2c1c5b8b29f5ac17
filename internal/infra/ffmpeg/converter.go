// Package ffmpeg shells out to the ffmpeg and ffprobe binaries for frame
// extraction, duration probing and clip encoding.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/coolshawn/Hasal/internal/domain/port"
	"github.com/maruel/natural"
	"go.uber.org/zap"
)

// Converter materializes every frame of a recording as a sequentially
// numbered image and assigns each one a wall-clock timestamp from its frame
// index and the measured FPS.
type Converter struct {
	logger *zap.Logger
}

func NewConverter(logger *zap.Logger) port.Converter {
	return &Converter{logger: logger}
}

func (c *Converter) GenerateResult(ctx context.Context, in port.ConverterInput) (*port.ConverterResult, error) {
	duration, err := probeDuration(ctx, in.VideoPath)
	if err != nil {
		c.logger.Warn("could not probe video duration", zap.Error(err))
	}

	pattern := filepath.Join(in.OutputDir, "image_%05d."+in.Format)
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", in.VideoPath,
		"-vsync", "0",
		"-y",
		pattern,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg error: %w, output: %s", err, string(output))
	}

	paths, err := filepath.Glob(filepath.Join(in.OutputDir, "*."+in.Format))
	if err != nil {
		return nil, fmt.Errorf("glob frames: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no frames extracted from %s", in.VideoPath)
	}
	sort.Slice(paths, func(i, j int) bool {
		return natural.Less(filepath.Base(paths[i]), filepath.Base(paths[j]))
	})

	var start float64
	if len(in.ExecTimestamp) > 0 {
		start = in.ExecTimestamp[0]
	}
	frames := make([]port.FrameTime, len(paths))
	for i, fp := range paths {
		frames[i] = port.FrameTime{
			Path:    fp,
			Index:   i,
			TimeSeq: start + float64(i)/in.FPS,
		}
	}

	c.logger.Info("frames extracted",
		zap.Int("count", len(frames)),
		zap.Float64("video_duration", duration),
		zap.Float64("fps", in.FPS),
	)
	return &port.ConverterResult{Frames: frames}, nil
}

func probeDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}
