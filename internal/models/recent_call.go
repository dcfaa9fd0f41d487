package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecentCall represents the recent_calls table
// One row is appended every time a patient is called or sent to a station
type RecentCall struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PatientID string    `gorm:"size:36;not null;index" json:"patient_id"`
	CalledAt  time.Time `gorm:"not null;index" json:"called_at"`
	CalledBy  *string   `gorm:"size:100" json:"called_by,omitempty"`
	Notes     *string   `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for RecentCall model
func (RecentCall) TableName() string {
	return "recent_calls"
}

func (r *RecentCall) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// RecentCallEntry is one ledger slot: the latest call of a patient
type RecentCallEntry struct {
	PatientID string    `json:"patient_id"`
	CalledAt  time.Time `json:"called_at"`
	CalledBy  string    `json:"called_by,omitempty"`
}
