package repository

import (
	"context"
	"errors"

	"clinic-queue-dashboard/internal/models"

	"gorm.io/gorm"
)

// ErrPatientNotFound is returned when a write matches no patient row
var ErrPatientNotFound = errors.New("patient not found")

// UnknownDepartment is shown for patients whose department row is missing
const UnknownDepartment = "Unknown Department"

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepo(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// ListPatients fetches every patient joined with its department display name
func (r *PatientRepository) ListPatients(ctx context.Context) ([]models.Patient, error) {
	var patients []models.Patient
	err := r.db.WithContext(ctx).
		Model(&models.Patient{}).
		Select("patients.*, departments.name AS department_name").
		Joins("LEFT JOIN departments ON departments.id = patients.department_id").
		Order("patients.checked_in_at ASC").
		Find(&patients).Error
	if err != nil {
		return nil, err
	}

	for i := range patients {
		if patients[i].DepartmentName == "" {
			patients[i].DepartmentName = UnknownDepartment
		}
	}
	return patients, nil
}

// InsertPatient creates a new patient row; the id is assigned by the model hook
func (r *PatientRepository) InsertPatient(ctx context.Context, patient *models.Patient) error {
	return r.db.WithContext(ctx).Create(patient).Error
}

// UpdatePatientStatus writes a status change and its companion columns in one statement
func (r *PatientRepository) UpdatePatientStatus(ctx context.Context, id string, status models.PatientStatus, fields models.StatusFields) error {
	result := r.db.WithContext(ctx).
		Model(&models.Patient{}).
		Where("id = ?", id).
		Updates(statusUpdates(status, fields))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPatientNotFound
	}
	return nil
}

// UpdatePatientStation sets or clears (nil) the station of a patient without touching status
func (r *PatientRepository) UpdatePatientStation(ctx context.Context, id string, stationID *int) error {
	updates := map[string]interface{}{
		"station_id": nil,
	}
	if stationID != nil {
		updates["station_id"] = *stationID
	}

	result := r.db.WithContext(ctx).
		Model(&models.Patient{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPatientNotFound
	}
	return nil
}

// BulkUpdateStatus applies one status change to every listed patient in a single statement
func (r *PatientRepository) BulkUpdateStatus(ctx context.Context, ids []string, status models.PatientStatus, fields models.StatusFields) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Patient{}).
		Where("id IN ?", ids).
		Updates(statusUpdates(status, fields)).Error
}

// BulkUpdateDepartment moves every listed patient to departmentID in a single statement
func (r *PatientRepository) BulkUpdateDepartment(ctx context.Context, ids []string, departmentID string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Patient{}).
		Where("id IN ?", ids).
		Update("department_id", departmentID).Error
}

// DeletePatient hard-deletes a patient together with its call history
func (r *PatientRepository) DeletePatient(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("patient_id = ?", id).Delete(&models.RecentCall{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Patient{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPatientNotFound
		}
		return nil
	})
}

func statusUpdates(status models.PatientStatus, fields models.StatusFields) map[string]interface{} {
	updates := map[string]interface{}{
		"status": status,
	}
	if fields.CompletedAt != nil {
		updates["completed_at"] = *fields.CompletedAt
	}
	if fields.StationID != nil {
		updates["station_id"] = *fields.StationID
	}
	if fields.ClearStation {
		updates["station_id"] = nil
	}
	return updates
}
