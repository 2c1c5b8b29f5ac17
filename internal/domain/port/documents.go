package port

import (
	"context"

	"github.com/coolshawn/Hasal/internal/domain/entity"
)

// ResultRepository persists the accumulated per-test-method records. The
// document is read fully and rewritten fully on each update; callers must
// hold exclusive read-modify-write access for the whole cycle (the worker
// runs a single aggregating goroutine to guarantee it).
//
// A missing or corrupt document on Load is not an error: it yields an empty
// document. A failed Persist is fatal and must propagate.
type ResultRepository interface {
	Load(ctx context.Context) (entity.ResultDocument, error)
	Persist(ctx context.Context, doc entity.ResultDocument) error
}

// StatusRepository persists the lightweight progress document.
type StatusRepository interface {
	Load(ctx context.Context) (*entity.StatusRecord, error)
	Persist(ctx context.Context, rec *entity.StatusRecord) error
}

// WaveformRepository persists one run's fluency waveform.
type WaveformRepository interface {
	Persist(ctx context.Context, doc *entity.WaveformDocument) error
}
