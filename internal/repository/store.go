package repository

import (
	"context"

	"clinic-queue-dashboard/internal/models"

	"gorm.io/gorm"
)

// Store bundles the table repositories behind the queue core's persistence contract
type Store struct {
	*PatientRepository
	*DepartmentRepository
	*RecentCallRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		PatientRepository:    NewPatientRepo(db),
		DepartmentRepository: NewDepartmentRepo(db),
		RecentCallRepository: NewRecentCallRepo(db),
	}
}

// ListDepartments returns the active departments
func (s *Store) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return s.DepartmentRepository.ListActiveDepartments(ctx)
}

// InsertPatient creates the patient and returns the stored row
func (s *Store) InsertPatient(ctx context.Context, patient models.Patient) (models.Patient, error) {
	if err := s.PatientRepository.InsertPatient(ctx, &patient); err != nil {
		return models.Patient{}, err
	}
	return patient, nil
}
