package repo

import (
	"context"

	"github.com/coolshawn/Hasal/internal/domain/entity"
)

// WaveformFile stores one run's fluency waveform.
type WaveformFile struct {
	path string
}

func NewWaveformFile(path string) *WaveformFile {
	return &WaveformFile{path: path}
}

func (w *WaveformFile) Path() string { return w.path }

func (w *WaveformFile) Persist(_ context.Context, doc *entity.WaveformDocument) error {
	return writeJSON(w.path, doc)
}
