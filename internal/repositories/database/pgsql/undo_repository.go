package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasapahq/vendorpay/internal/apperrors"
	"github.com/kasapahq/vendorpay/internal/core/domain"
	portsrepo "github.com/kasapahq/vendorpay/internal/core/ports/repositories"
)

type PgxUndoRepository struct {
	BaseRepository
}

// newPgxUndoRepository creates a new repository for undo snapshots. The
// captured budget-line and payment state is stored as JSONB: the snapshot is
// written once and read back whole, never queried per field.
func newPgxUndoRepository(pool *pgxpool.Pool) portsrepo.UndoRepositoryFacade {
	return &PgxUndoRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.UndoRepositoryFacade = (*PgxUndoRepository)(nil)

// SaveSnapshot persists a freshly captured snapshot.
func (r *PgxUndoRepository) SaveSnapshot(ctx context.Context, snapshot domain.UndoSnapshot) error {
	budgetLines, err := json.Marshal(snapshot.BudgetLines)
	if err != nil {
		return fmt.Errorf("failed to marshal budget-line snapshots for batch %s: %w", snapshot.BatchID, err)
	}
	payments, err := json.Marshal(snapshot.Payments)
	if err != nil {
		return fmt.Errorf("failed to marshal payment snapshots for batch %s: %w", snapshot.BatchID, err)
	}

	query := `
		INSERT INTO undo_snapshots (
			batch_id, primary_vendor, total_amount, budget_lines, payments,
			master_log_ids, status, can_undo, is_undone,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, $9, $10, $11, $12);
	`
	_, err = r.Pool.Exec(ctx, query,
		snapshot.BatchID,
		snapshot.PrimaryVendor,
		snapshot.TotalAmount,
		budgetLines,
		payments,
		snapshot.MasterLogIDs,
		string(snapshot.Status),
		snapshot.CanUndo,
		snapshot.CreatedAt,
		snapshot.CreatedBy,
		snapshot.LastUpdatedAt,
		snapshot.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save undo snapshot for batch %s: %w", snapshot.BatchID, err)
	}
	return nil
}

// AttachMasterLogIDs records the master-log transaction IDs produced during
// finalize and marks the snapshot completed and undoable.
func (r *PgxUndoRepository) AttachMasterLogIDs(ctx context.Context, batchID string, masterLogIDs []string, userID string) error {
	query := `
		UPDATE undo_snapshots
		SET master_log_ids = $2, status = $3, can_undo = true,
		    last_updated_at = $4, last_updated_by = $5
		WHERE batch_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, batchID, masterLogIDs, string(domain.SnapshotCompleted), time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to attach master-log IDs to snapshot %s: %w", batchID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkUndone flips the snapshot's is_undone flag with a timestamp.
func (r *PgxUndoRepository) MarkUndone(ctx context.Context, batchID string, undoneBy string, undoneAt time.Time) error {
	query := `
		UPDATE undo_snapshots
		SET is_undone = true, can_undo = false, undone_at = $2, undone_by = $3,
		    last_updated_at = $2, last_updated_by = $3
		WHERE batch_id = $1 AND is_undone = false;
	`
	tag, err := r.Pool.Exec(ctx, query, batchID, undoneAt, undoneBy)
	if err != nil {
		return fmt.Errorf("failed to mark snapshot %s undone: %w", batchID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// PurgeOldSnapshots deletes everything beyond the keep most recent non-undone
// snapshots and returns the number purged.
func (r *PgxUndoRepository) PurgeOldSnapshots(ctx context.Context, keep int) (int, error) {
	query := `
		DELETE FROM undo_snapshots
		WHERE batch_id NOT IN (
			SELECT batch_id FROM undo_snapshots
			WHERE is_undone = false
			ORDER BY created_at DESC
			LIMIT $1
		);
	`
	tag, err := r.Pool.Exec(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to purge old undo snapshots: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

const undoSnapshotColumns = `
	batch_id, primary_vendor, total_amount, budget_lines, payments,
	master_log_ids, status, can_undo, is_undone, undone_at, undone_by,
	created_at, created_by, last_updated_at, last_updated_by`

func scanUndoSnapshot(row pgx.Row) (domain.UndoSnapshot, error) {
	var s domain.UndoSnapshot
	var budgetLines, payments []byte
	var undoneAt *time.Time
	var undoneBy *string

	err := row.Scan(
		&s.BatchID,
		&s.PrimaryVendor,
		&s.TotalAmount,
		&budgetLines,
		&payments,
		&s.MasterLogIDs,
		&s.Status,
		&s.CanUndo,
		&s.IsUndone,
		&undoneAt,
		&undoneBy,
		&s.CreatedAt,
		&s.CreatedBy,
		&s.LastUpdatedAt,
		&s.LastUpdatedBy,
	)
	if err != nil {
		return s, err
	}

	if err := json.Unmarshal(budgetLines, &s.BudgetLines); err != nil {
		return s, fmt.Errorf("failed to unmarshal budget-line snapshots for batch %s: %w", s.BatchID, err)
	}
	if err := json.Unmarshal(payments, &s.Payments); err != nil {
		return s, fmt.Errorf("failed to unmarshal payment snapshots for batch %s: %w", s.BatchID, err)
	}
	s.UndoneAt = undoneAt
	if undoneBy != nil {
		s.UndoneBy = *undoneBy
	}
	return s, nil
}

// FindSnapshotByBatchID retrieves the snapshot captured for a batch.
func (r *PgxUndoRepository) FindSnapshotByBatchID(ctx context.Context, batchID string) (*domain.UndoSnapshot, error) {
	query := `SELECT ` + undoSnapshotColumns + ` FROM undo_snapshots WHERE batch_id = $1;`

	s, err := scanUndoSnapshot(r.Pool.QueryRow(ctx, query, batchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find undo snapshot for batch %s: %w", batchID, err)
	}
	return &s, nil
}

// ListRecentSnapshots retrieves the most recently created not-yet-undone
// snapshots, newest first.
func (r *PgxUndoRepository) ListRecentSnapshots(ctx context.Context, limit int) ([]domain.UndoSnapshot, error) {
	query := `SELECT ` + undoSnapshotColumns + ` FROM undo_snapshots WHERE is_undone = false ORDER BY created_at DESC LIMIT $1;`

	rows, err := r.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent undo snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []domain.UndoSnapshot{}
	for rows.Next() {
		s, err := scanUndoSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan undo snapshot row: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate undo snapshot rows: %w", err)
	}
	return snapshots, nil
}
