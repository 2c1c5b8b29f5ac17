package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/coolshawn/Hasal/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResultFileMissingYieldsEmpty(t *testing.T) {
	r := NewResultFile(filepath.Join(t.TempDir(), "result.json"), zap.NewNop())

	doc, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestResultFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	r := NewResultFile(path, zap.NewNop())
	ctx := context.Background()

	doc := entity.ResultDocument{
		"test_firefox_gsearch": {
			TotalRunNo: 2,
			TotalTime:  0.42,
			AvgTime:    0.21,
			TimeList: []entity.TimingSample{
				{RunTime: 0.20, Folder: "run-1"},
				{RunTime: 0.22, Folder: "run-2"},
			},
		},
	}
	require.NoError(t, r.Persist(ctx, doc))

	loaded, err := r.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, loaded, "test_firefox_gsearch")
	rec := loaded["test_firefox_gsearch"]
	assert.Equal(t, 2, rec.TotalRunNo)
	require.Len(t, rec.TimeList, 2)
	assert.Equal(t, "run-2", rec.TimeList[1].Folder)
}

func TestResultFileCorruptYieldsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	r := NewResultFile(path, zap.NewNop())

	doc, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestResultFilePersistFailurePropagates(t *testing.T) {
	r := NewResultFile("/nonexistent-dir/result.json", zap.NewNop())
	err := r.Persist(context.Background(), entity.ResultDocument{})
	assert.Error(t, err)
}

func TestStatusFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	s := NewStatusFile(path)
	ctx := context.Background()

	rec, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, rec.TimeListCounter)

	rec.TimeListCounter = 7
	rec.FPSStat = 89.7
	require.NoError(t, s.Persist(ctx, rec))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.TimeListCounter)
	assert.InDelta(t, 89.7, loaded.FPSStat, 1e-9)
}

func TestWaveformFilePersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waveform.json")
	w := NewWaveformFile(path)

	doc := &entity.WaveformDocument{
		Video:   "videos/run.mkv",
		Data:    []float64{0, 0.2, 0.1},
		ImgList: []string{"image_00010.png", "image_00011.png"},
	}
	require.NoError(t, w.Persist(context.Background(), doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "videos/run.mkv")
}

func TestWriteJSONLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.json")
	r := NewResultFile(path, zap.NewNop())
	require.NoError(t, r.Persist(context.Background(), entity.ResultDocument{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "result.json", entries[0].Name())
}
