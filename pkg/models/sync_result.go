package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SyncResult is the audit record for one sync attempt. Append-only: rows are
// never updated or deleted by the service.
type SyncResult struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	IsSuccess bool      `json:"is_success" gorm:"not null"`
	Message   string    `json:"message" gorm:"type:text"`
	SyncCount uint      `json:"sync_count" gorm:"not null"`
	ElapsedMS int64     `json:"elapsed_ms" gorm:"column:elapsed_ms;not null"`
	SyncedAt  time.Time `json:"synced_at" gorm:"not null"`
}

func (SyncResult) TableName() string {
	return "sync_results"
}

func (r *SyncResult) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
