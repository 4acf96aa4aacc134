package course

import (
	"context"

	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

// Catalog resolves courses for the enrollment state machine. Read-only.
type Catalog interface {
	// FindActive returns the course with the given ID, excluding soft-deleted
	// rows. Returns ErrCourseNotFound when the course does not exist or is
	// soft-deleted.
	FindActive(ctx context.Context, courseID int64) (*Course, error)
}

// TxCatalog is the catalog surface available inside an atomic unit. It exists
// for the legacy amount_paid fallback: rows enrolled before the snapshot
// column was added refund the course's current price instead.
type TxCatalog interface {
	// CurrentPrice returns the course's current price regardless of
	// soft-delete state, or zero when the course row is gone entirely.
	CurrentPrice(ctx context.Context, courseID int64) (shared.Money, error)
}
