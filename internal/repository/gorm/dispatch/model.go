package dispatchgorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DispatchModel is the GORM persistence model for dispatches.
// It maps directly to the "dispatches" table in Postgres.
type DispatchModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Sender       string    `gorm:"size:64;not null"`
	Destinations []string  `gorm:"serializer:json;type:jsonb;not null"`
	Content      string    `gorm:"type:text;not null"`
	Outcome      string    `gorm:"size:20;not null;index"`
	ErrorCode    int       `gorm:"not null"`
	Detail       string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null;index"`
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// TableName overrides the default table name used by GORM.
func (DispatchModel) TableName() string {
	return "dispatches"
}

// BeforeCreate ensures a UUID is set before inserting a new record.
func (m *DispatchModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
