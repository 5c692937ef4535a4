package repositories

import (
	"context"
	"time"
)

// ActivityRecord is one append-only row describing a user-level action
// (batch finalized, batch undone). Written fire-and-forget off the result
// path; write failures are logged and never surfaced to the caller.
type ActivityRecord struct {
	Action    string
	BatchID   string
	Detail    string
	UserID    string
	CreatedAt time.Time
}

// ActivityWriter appends activity records.
type ActivityWriter interface {
	AppendActivity(ctx context.Context, record ActivityRecord) error
}
