package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence operations for dispatches.
//
// It is implemented by infrastructure layers (e.g. GORM) while the service
// layer depends only on this interface.
type Repository interface {
	// Save persists a new dispatch.
	Save(ctx context.Context, d *Dispatch) error

	// GetByID returns ErrNotFound when no dispatch has the given id.
	GetByID(ctx context.Context, id uuid.UUID) (*Dispatch, error)

	// List returns a page of dispatches, newest first, and the total count.
	List(ctx context.Context, page, limit int) ([]*Dispatch, int64, error)

	// DeleteOlderThan removes dispatches created before cutoff and reports
	// how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
