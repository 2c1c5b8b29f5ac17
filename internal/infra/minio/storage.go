package minio

import (
	"context"
	"fmt"
	"io"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage moves recordings and reference samples in and measurement
// artifacts (trimmed clips, waveforms) out.
type Storage struct {
	client          *miniogo.Client
	recordingBucket string
	sampleBucket    string
	artifactBucket  string
}

type StorageConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	UseSSL          bool
	RecordingBucket string
	SampleBucket    string
	ArtifactBucket  string
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Storage{
		client:          client,
		recordingBucket: cfg.RecordingBucket,
		sampleBucket:    cfg.SampleBucket,
		artifactBucket:  cfg.ArtifactBucket,
	}, nil
}

func (s *Storage) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.recordingBucket, s.sampleBucket, s.artifactBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

func (s *Storage) DownloadRecording(ctx context.Context, objectKey string, destPath string) error {
	return s.client.FGetObject(ctx, s.recordingBucket, objectKey, destPath, miniogo.GetObjectOptions{})
}

func (s *Storage) DownloadSample(ctx context.Context, objectKey string, destPath string) error {
	return s.client.FGetObject(ctx, s.sampleBucket, objectKey, destPath, miniogo.GetObjectOptions{})
}

func (s *Storage) UploadClip(ctx context.Context, objectKey string, reader io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.artifactBucket, objectKey, reader, size, miniogo.PutObjectOptions{
		ContentType: "video/mp4",
	})
	if err != nil {
		return fmt.Errorf("upload clip: %w", err)
	}
	return nil
}

func (s *Storage) UploadWaveform(ctx context.Context, objectKey string, reader io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.artifactBucket, objectKey, reader, size, miniogo.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("upload waveform: %w", err)
	}
	return nil
}
