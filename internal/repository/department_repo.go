package repository

import (
	"context"

	"clinic-queue-dashboard/internal/models"

	"gorm.io/gorm"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepo(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// ListActiveDepartments retrieves all active departments ordered by name
func (r *DepartmentRepository) ListActiveDepartments(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&departments).Error
	return departments, err
}

// EnsureDepartment creates the named department unless one already exists
func (r *DepartmentRepository) EnsureDepartment(ctx context.Context, name string) (*models.Department, bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Department{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, false, err
	}
	if count > 0 {
		return nil, false, nil
	}

	department := &models.Department{
		Name:     name,
		IsActive: true,
	}
	if err := r.db.WithContext(ctx).Create(department).Error; err != nil {
		return nil, false, err
	}
	return department, true, nil
}
