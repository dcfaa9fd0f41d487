package service

import (
	"errors"
	"fmt"

	"clinic-queue-dashboard/internal/models"
	"clinic-queue-dashboard/internal/repository"
)

// NotFoundError reports a referenced patient that is not in the queue
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// InvalidTransitionError reports a status change the queue does not allow
type InvalidTransitionError struct {
	PatientID string
	From      models.PatientStatus
	To        models.PatientStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition for patient %s: %s -> %s", e.PatientID, e.From, e.To)
}

// InvalidStationError reports a station id outside [1, TotalStations]
type InvalidStationError struct {
	StationID     int
	TotalStations int
}

func (e *InvalidStationError) Error() string {
	return fmt.Sprintf("invalid station %d: must be between 1 and %d", e.StationID, e.TotalStations)
}

// StationOccupiedError is only raised under the exclusive station policy
type StationOccupiedError struct {
	StationID int
	Occupant  string
}

func (e *StationOccupiedError) Error() string {
	return fmt.Sprintf("station %d is occupied by patient %s", e.StationID, e.Occupant)
}

// DepartmentNotFoundError reports a department reference that matches no known department
type DepartmentNotFoundError struct {
	Department string
}

func (e *DepartmentNotFoundError) Error() string {
	return fmt.Sprintf("department %q not found", e.Department)
}

// ValidationError reports malformed input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// PersistenceError wraps a failed remote operation
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// wrapPersistence turns an adapter error into the queue's error taxonomy
func wrapPersistence(op, patientID string, err error) error {
	if err == nil {
		return nil
	}
	if patientID != "" && errors.Is(err, repository.ErrPatientNotFound) {
		return &NotFoundError{Resource: "patient", ID: patientID}
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation reports whether err was raised before any remote call
func IsValidation(err error) bool {
	var (
		notFound     *NotFoundError
		transition   *InvalidTransitionError
		station      *InvalidStationError
		occupied     *StationOccupiedError
		department   *DepartmentNotFoundError
		invalidInput *ValidationError
	)
	return errors.As(err, &notFound) ||
		errors.As(err, &transition) ||
		errors.As(err, &station) ||
		errors.As(err, &occupied) ||
		errors.As(err, &department) ||
		errors.As(err, &invalidInput)
}
