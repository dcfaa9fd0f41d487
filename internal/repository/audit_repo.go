package repository

import (
	"context"
	"time"

	"clinic-queue-dashboard/internal/models"

	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// RecordOperation appends one entry to the audit trail
func (r *AuditRepository) RecordOperation(ctx context.Context, action, details string, at time.Time) error {
	entry := &models.AuditLog{
		Action:    action,
		Details:   details,
		CreatedAt: at,
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListRecent returns the newest audit entries first
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
