package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/kasapahq/vendorpay/internal/core/ports/repositories"
)

type PgxActivityRepository struct {
	BaseRepository
}

// newPgxActivityRepository creates a new repository for the activity log.
func newPgxActivityRepository(pool *pgxpool.Pool) portsrepo.ActivityWriter {
	return &PgxActivityRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.ActivityWriter = (*PgxActivityRepository)(nil)

// AppendActivity appends one activity record.
func (r *PgxActivityRepository) AppendActivity(ctx context.Context, record portsrepo.ActivityRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO activity_log (activity_id, action, batch_id, detail, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.Pool.Exec(ctx, query,
		uuid.NewString(),
		record.Action,
		record.BatchID,
		record.Detail,
		record.UserID,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append activity record for batch %s: %w", record.BatchID, err)
	}
	return nil
}
