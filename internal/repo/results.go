// Package repo persists the measurement documents as whole JSON files:
// read fully, rewritten fully, no partial writes. Single-writer access is
// the caller's contract.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coolshawn/Hasal/internal/domain/entity"
	"go.uber.org/zap"
)

// ResultFile stores the per-test-method run records.
type ResultFile struct {
	path   string
	logger *zap.Logger
}

func NewResultFile(path string, logger *zap.Logger) *ResultFile {
	return &ResultFile{path: path, logger: logger}
}

// Load reads the whole document. A missing or corrupt file is prior history
// we cannot use, not a reason to stop measuring: it yields an empty document.
func (r *ResultFile) Load(_ context.Context) (entity.ResultDocument, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("results document unreadable, starting empty", zap.Error(err))
		}
		return entity.ResultDocument{}, nil
	}
	doc := entity.ResultDocument{}
	if err := json.Unmarshal(data, &doc); err != nil {
		r.logger.Warn("results document corrupt, starting empty",
			zap.String("path", r.path), zap.Error(err))
		return entity.ResultDocument{}, nil
	}
	return doc, nil
}

// Persist rewrites the whole document. Failure propagates: silently losing
// accumulated history is unacceptable.
func (r *ResultFile) Persist(_ context.Context, doc entity.ResultDocument) error {
	return writeJSON(r.path, doc)
}

// writeJSON writes via a temp file in the same directory and renames it
// over the target, so a crash mid-write never truncates the document.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
