package postgres

import (
	"context"
	"fmt"

	"github.com/coolshawn/Hasal/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MeasurementRepository journals every pipeline run for audit.
type MeasurementRepository struct {
	pool *pgxpool.Pool
}

func NewMeasurementRepository(pool *pgxpool.Pool) *MeasurementRepository {
	return &MeasurementRepository{pool: pool}
}

func (r *MeasurementRepository) Create(ctx context.Context, m *entity.Measurement) error {
	query := `
		INSERT INTO measurements (
			id, test_name, video_key, clip_key, status, run_time,
			frame_count, attempt, max_attempts, error_message,
			created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.TestName, m.VideoKey, m.ClipKey, string(m.Status),
		m.RunTime, m.FrameCount, m.Attempt, m.MaxAttempts,
		m.ErrorMessage, m.CreatedAt, m.UpdatedAt, m.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert measurement: %w", err)
	}
	return nil
}

func (r *MeasurementRepository) Update(ctx context.Context, m *entity.Measurement) error {
	query := `
		UPDATE measurements SET
			status=$2, clip_key=$3, run_time=$4, frame_count=$5,
			attempt=$6, error_message=$7, updated_at=$8, completed_at=$9
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		m.ID, string(m.Status), m.ClipKey, m.RunTime, m.FrameCount,
		m.Attempt, m.ErrorMessage, m.UpdatedAt, m.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update measurement: %w", err)
	}
	return nil
}

func (r *MeasurementRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Measurement, error) {
	query := `
		SELECT id, test_name, video_key, clip_key, status, run_time,
			frame_count, attempt, max_attempts, error_message,
			created_at, updated_at, completed_at
		FROM measurements WHERE id=$1`

	m := &entity.Measurement{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.TestName, &m.VideoKey, &m.ClipKey, &status,
		&m.RunTime, &m.FrameCount, &m.Attempt, &m.MaxAttempts,
		&m.ErrorMessage, &m.CreatedAt, &m.UpdatedAt, &m.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find measurement by id: %w", err)
	}
	m.Status = entity.MeasurementStatus(status)
	return m, nil
}
