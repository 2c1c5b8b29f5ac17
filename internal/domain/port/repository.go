package port

import (
	"context"

	"github.com/coolshawn/Hasal/internal/domain/entity"
	"github.com/google/uuid"
)

// MeasurementRepository is the audit journal of pipeline runs.
type MeasurementRepository interface {
	Create(ctx context.Context, m *entity.Measurement) error
	Update(ctx context.Context, m *entity.Measurement) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Measurement, error)
}
