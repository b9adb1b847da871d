package dispatchgorm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oggyb/smsoffice-gateway/internal/db"
	"github.com/oggyb/smsoffice-gateway/internal/domain/dispatch"
	"gorm.io/gorm"
)

// Repository is a GORM-backed implementation of dispatch.Repository.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a dispatch repository using the given DB adapter.
func NewRepository(d db.DB) *Repository {
	return &Repository{
		db: d.Conn().(*gorm.DB),
	}
}

// Save inserts a new dispatch record.
func (r *Repository) Save(ctx context.Context, d *dispatch.Dispatch) error {
	return r.db.WithContext(ctx).Create(fromDomain(d)).Error
}

// GetByID loads one dispatch.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*dispatch.Dispatch, error) {
	var m DispatchModel

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, dispatch.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return toDomain(&m), nil
}

// List returns a paginated list of dispatches and the total count.
func (r *Repository) List(ctx context.Context, page, limit int) ([]*dispatch.Dispatch, int64, error) {
	var models []DispatchModel
	var total int64

	query := r.db.WithContext(ctx).Model(&DispatchModel{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error

	if err != nil {
		return nil, 0, err
	}

	return toDomainMany(models), total, nil
}

// DeleteOlderThan hard-deletes dispatches created before cutoff.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&DispatchModel{})

	return res.RowsAffected, res.Error
}

// compile-time interface check
var _ dispatch.Repository = (*Repository)(nil)
