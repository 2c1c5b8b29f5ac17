package port

import (
	"context"
	"io"
)

// ArtifactStorage moves recordings and samples in, trimmed clips and
// waveforms out.
type ArtifactStorage interface {
	DownloadRecording(ctx context.Context, objectKey string, destPath string) error
	DownloadSample(ctx context.Context, objectKey string, destPath string) error
	UploadClip(ctx context.Context, objectKey string, reader io.Reader, size int64) error
	UploadWaveform(ctx context.Context, objectKey string, reader io.Reader, size int64) error
}
