package repository

import (
	"context"
	"fmt"

	"hall-booking/internal/data/entity"
	"hall-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SlotRepository interface {
	Release(ctx context.Context, slotID uuid.UUID) error
	ReleaseMany(ctx context.Context, slotIDs []uuid.UUID) (int64, error)
}

type slotRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSlotRepository(db database.PgxIface, log *zap.Logger) SlotRepository {
	return &slotRepository{
		db:  db,
		log: log.With(zap.String("repository", "slot")),
	}
}

func (r *slotRepository) Release(ctx context.Context, slotID uuid.UUID) error {
	query := `UPDATE slots SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, slotID, entity.SlotStatusAvailable)
	if err != nil {
		r.log.Error("Failed to release slot",
			zap.Error(err),
			zap.String("slot_id", slotID.String()),
		)
		return fmt.Errorf("release slot %s: %w", slotID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("slot %s not found", slotID.String())
	}

	return nil
}

func (r *slotRepository) ReleaseMany(ctx context.Context, slotIDs []uuid.UUID) (int64, error) {
	query := `UPDATE slots SET status = $2, updated_at = NOW() WHERE id = ANY($1)`

	result, err := r.db.Exec(ctx, query, slotIDs, entity.SlotStatusAvailable)
	if err != nil {
		r.log.Error("Failed to release slots",
			zap.Error(err),
			zap.Int("count", len(slotIDs)),
		)
		return 0, fmt.Errorf("release %d slots: %w", len(slotIDs), err)
	}

	return result.RowsAffected(), nil
}
