package service

import (
	"context"
	"time"

	"clinic-queue-dashboard/internal/models"
)

// legalTransitions lists every status change the queue accepts.
// Nothing leads back to waiting and completed is terminal.
var legalTransitions = map[models.PatientStatus][]models.PatientStatus{
	models.StatusWaiting:    {models.StatusCalled},
	models.StatusCalled:     {models.StatusInProgress, models.StatusCompleted},
	models.StatusInProgress: {models.StatusCalled, models.StatusCompleted},
}

// CanTransition reports whether from -> to is a legal status change
func CanTransition(from, to models.PatientStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionEngine applies status changes and their side effects
type TransitionEngine struct {
	store       *QueueStore
	ledger      *RecentCallsLedger
	persistence Persistence
	calledBy    string
	now         func() time.Time
}

func NewTransitionEngine(store *QueueStore, ledger *RecentCallsLedger, persistence Persistence, calledBy string, now func() time.Time) *TransitionEngine {
	return &TransitionEngine{
		store:       store,
		ledger:      ledger,
		persistence: persistence,
		calledBy:    calledBy,
		now:         now,
	}
}

// Transition moves a patient to status to.
// The returned patient reflects the confirmed write; the store itself is only updated by a refresh.
func (e *TransitionEngine) Transition(ctx context.Context, patientID string, to models.PatientStatus) (models.Patient, error) {
	patient, ok := e.store.Patient(patientID)
	if !ok {
		return models.Patient{}, &NotFoundError{Resource: "patient", ID: patientID}
	}
	if !to.Valid() || !CanTransition(patient.Status, to) {
		return models.Patient{}, &InvalidTransitionError{PatientID: patientID, From: patient.Status, To: to}
	}

	next := patient.Clone()
	next.Status = to

	var fields models.StatusFields
	if to == models.StatusCompleted {
		completedAt := e.now()
		fields.CompletedAt = &completedAt
		fields.ClearStation = true
		next.CompletedAt = &completedAt
		next.StationID = nil
	}

	if err := e.persistence.UpdatePatientStatus(ctx, patientID, to, fields); err != nil {
		return models.Patient{}, wrapPersistence("update patient status", patientID, err)
	}

	if to == models.StatusCalled {
		if err := e.recordCall(ctx, patientID); err != nil {
			return models.Patient{}, err
		}
	}

	return next, nil
}

// recordCall writes a call event and, once confirmed, puts it at the head of the ledger
func (e *TransitionEngine) recordCall(ctx context.Context, patientID string) error {
	calledAt := e.now()
	if err := e.persistence.InsertRecentCall(ctx, patientID, e.calledBy, calledAt); err != nil {
		return wrapPersistence("record recent call", "", err)
	}
	e.ledger.RecordCall(patientID, e.calledBy, calledAt)
	return nil
}
