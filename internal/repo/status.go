package repo

import (
	"context"
	"encoding/json"
	"os"

	"github.com/coolshawn/Hasal/internal/domain/entity"
)

// StatusFile stores the lightweight progress record read by external
// tooling alongside the results document.
type StatusFile struct {
	path string
}

func NewStatusFile(path string) *StatusFile {
	return &StatusFile{path: path}
}

func (s *StatusFile) Load(_ context.Context) (*entity.StatusRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return &entity.StatusRecord{}, nil
	}
	rec := &entity.StatusRecord{}
	if err := json.Unmarshal(data, rec); err != nil {
		return &entity.StatusRecord{}, nil
	}
	return rec, nil
}

func (s *StatusFile) Persist(_ context.Context, rec *entity.StatusRecord) error {
	return writeJSON(s.path, rec)
}
