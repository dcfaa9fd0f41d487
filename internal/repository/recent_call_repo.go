package repository

import (
	"context"
	"time"

	"clinic-queue-dashboard/internal/models"

	"gorm.io/gorm"
)

type RecentCallRepository struct {
	db *gorm.DB
}

func NewRecentCallRepo(db *gorm.DB) *RecentCallRepository {
	return &RecentCallRepository{db: db}
}

// InsertRecentCall appends a call event for a patient
func (r *RecentCallRepository) InsertRecentCall(ctx context.Context, patientID, calledBy string, calledAt time.Time) error {
	call := &models.RecentCall{
		PatientID: patientID,
		CalledAt:  calledAt,
	}
	if calledBy != "" {
		call.CalledBy = &calledBy
	}
	return r.db.WithContext(ctx).Create(call).Error
}

// ListRecentCalls returns the latest call events, newest first
// Calls whose patient row no longer exists are skipped by the inner join
func (r *RecentCallRepository) ListRecentCalls(ctx context.Context, limit int) ([]models.RecentCallEntry, error) {
	var calls []models.RecentCall
	err := r.db.WithContext(ctx).
		Select("recent_calls.*").
		Joins("INNER JOIN patients ON patients.id = recent_calls.patient_id").
		Order("recent_calls.called_at DESC").
		Limit(limit).
		Find(&calls).Error
	if err != nil {
		return nil, err
	}

	entries := make([]models.RecentCallEntry, 0, len(calls))
	for _, call := range calls {
		entry := models.RecentCallEntry{
			PatientID: call.PatientID,
			CalledAt:  call.CalledAt,
		}
		if call.CalledBy != nil {
			entry.CalledBy = *call.CalledBy
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
