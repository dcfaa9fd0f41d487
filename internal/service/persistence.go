package service

import (
	"context"
	"time"

	"clinic-queue-dashboard/internal/models"
)

// Persistence is the remote store the queue writes through and re-reads from.
// repository.Store is the production implementation.
type Persistence interface {
	ListDepartments(ctx context.Context) ([]models.Department, error)
	ListPatients(ctx context.Context) ([]models.Patient, error)
	InsertPatient(ctx context.Context, patient models.Patient) (models.Patient, error)
	UpdatePatientStatus(ctx context.Context, id string, status models.PatientStatus, fields models.StatusFields) error
	DeletePatient(ctx context.Context, id string) error
	UpdatePatientStation(ctx context.Context, id string, stationID *int) error
	BulkUpdateStatus(ctx context.Context, ids []string, status models.PatientStatus, fields models.StatusFields) error
	BulkUpdateDepartment(ctx context.Context, ids []string, departmentID string) error
	InsertRecentCall(ctx context.Context, patientID, calledBy string, calledAt time.Time) error
	ListRecentCalls(ctx context.Context, limit int) ([]models.RecentCallEntry, error)
}
