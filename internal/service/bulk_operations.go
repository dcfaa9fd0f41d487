package service

import (
	"context"
	"time"

	"clinic-queue-dashboard/internal/models"
)

// BulkCoordinator applies one change to a set of patients as a single remote request
type BulkCoordinator struct {
	store       *QueueStore
	persistence Persistence
	now         func() time.Time
}

func NewBulkCoordinator(store *QueueStore, persistence Persistence, now func() time.Time) *BulkCoordinator {
	return &BulkCoordinator{
		store:       store,
		persistence: persistence,
		now:         now,
	}
}

// CompleteAll completes every listed patient, stamping completedAt and freeing stations.
// Patients already completed keep their original completion time, so repeating the call
// changes nothing. Returns the number of patients written.
func (b *BulkCoordinator) CompleteAll(ctx context.Context, patientIDs []string) (int, error) {
	pending := make([]string, 0, len(patientIDs))
	for _, id := range uniqueIDs(patientIDs) {
		patient, ok := b.store.Patient(id)
		if !ok {
			return 0, &NotFoundError{Resource: "patient", ID: id}
		}
		switch {
		case patient.Status == models.StatusCompleted:
			continue
		case !CanTransition(patient.Status, models.StatusCompleted):
			return 0, &InvalidTransitionError{PatientID: id, From: patient.Status, To: models.StatusCompleted}
		}
		pending = append(pending, id)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	completedAt := b.now()
	fields := models.StatusFields{
		CompletedAt:  &completedAt,
		ClearStation: true,
	}
	if err := b.persistence.BulkUpdateStatus(ctx, pending, models.StatusCompleted, fields); err != nil {
		return 0, wrapPersistence("complete patients", "", err)
	}
	return len(pending), nil
}

// TransferPatients moves every listed patient to the target department.
// target may be a department id or display name; status and station are untouched.
func (b *BulkCoordinator) TransferPatients(ctx context.Context, patientIDs []string, target string) (int, error) {
	department, ok := b.store.ResolveDepartment(target)
	if !ok {
		return 0, &DepartmentNotFoundError{Department: target}
	}

	pending := make([]string, 0, len(patientIDs))
	for _, id := range uniqueIDs(patientIDs) {
		patient, ok := b.store.Patient(id)
		if !ok {
			return 0, &NotFoundError{Resource: "patient", ID: id}
		}
		if patient.DepartmentID != department.ID {
			pending = append(pending, id)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	if err := b.persistence.BulkUpdateDepartment(ctx, pending, department.ID); err != nil {
		return 0, wrapPersistence("transfer patients", "", err)
	}
	return len(pending), nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
