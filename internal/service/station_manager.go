package service

import (
	"context"
	"fmt"

	"clinic-queue-dashboard/internal/models"
)

// DefaultTotalStations matches the six service points of the clinic floor
const DefaultTotalStations = 6

// StationPolicy decides whether a station can be held by several patients
type StationPolicy string

const (
	// StationPolicyShared lets any number of patients share a station; counts are informational
	StationPolicyShared StationPolicy = "shared"
	// StationPolicyExclusive rejects assignment to a station held by another active patient
	StationPolicyExclusive StationPolicy = "exclusive"
)

// ParseStationPolicy maps a config value onto a policy
func ParseStationPolicy(s string) (StationPolicy, error) {
	switch StationPolicy(s) {
	case StationPolicyShared, "":
		return StationPolicyShared, nil
	case StationPolicyExclusive:
		return StationPolicyExclusive, nil
	}
	return "", fmt.Errorf("unknown station policy %q", s)
}

// StationView is one station with the patients currently holding it
type StationView struct {
	ID        int              `json:"id"`
	Count     int              `json:"count"`
	Occupants []models.Patient `json:"occupants"`
}

// StationManager assigns and releases stations
type StationManager struct {
	store         *QueueStore
	transitions   *TransitionEngine
	persistence   Persistence
	totalStations int
	policy        StationPolicy
}

func NewStationManager(store *QueueStore, transitions *TransitionEngine, persistence Persistence, totalStations int, policy StationPolicy) *StationManager {
	if totalStations < 1 {
		totalStations = DefaultTotalStations
	}
	if policy == "" {
		policy = StationPolicyShared
	}
	return &StationManager{
		store:         store,
		transitions:   transitions,
		persistence:   persistence,
		totalStations: totalStations,
		policy:        policy,
	}
}

func (m *StationManager) TotalStations() int {
	return m.totalStations
}

func (m *StationManager) Policy() StationPolicy {
	return m.policy
}

// Assign puts a patient on a station and marks them called.
// A patient holds at most one station, so a previous assignment is replaced.
func (m *StationManager) Assign(ctx context.Context, patientID string, stationID int) (models.Patient, error) {
	if stationID < 1 || stationID > m.totalStations {
		return models.Patient{}, &InvalidStationError{StationID: stationID, TotalStations: m.totalStations}
	}

	patient, ok := m.store.Patient(patientID)
	if !ok {
		return models.Patient{}, &NotFoundError{Resource: "patient", ID: patientID}
	}
	if patient.Status == models.StatusCompleted {
		return models.Patient{}, &InvalidTransitionError{PatientID: patientID, From: patient.Status, To: models.StatusCalled}
	}

	if m.policy == StationPolicyExclusive {
		for _, occupant := range m.occupants(stationID) {
			if occupant.ID != patientID {
				return models.Patient{}, &StationOccupiedError{StationID: stationID, Occupant: occupant.ID}
			}
		}
	}

	station := stationID
	fields := models.StatusFields{StationID: &station}
	if err := m.persistence.UpdatePatientStatus(ctx, patientID, models.StatusCalled, fields); err != nil {
		return models.Patient{}, wrapPersistence("assign station", patientID, err)
	}
	if err := m.transitions.recordCall(ctx, patientID); err != nil {
		return models.Patient{}, err
	}

	next := patient.Clone()
	next.Status = models.StatusCalled
	next.StationID = &station
	return next, nil
}

// Release frees the patient's station and leaves the status alone
func (m *StationManager) Release(ctx context.Context, patientID string) (models.Patient, error) {
	patient, ok := m.store.Patient(patientID)
	if !ok {
		return models.Patient{}, &NotFoundError{Resource: "patient", ID: patientID}
	}
	if !patient.HasStation() {
		return patient, nil
	}

	if err := m.persistence.UpdatePatientStation(ctx, patientID, nil); err != nil {
		return models.Patient{}, wrapPersistence("release station", patientID, err)
	}

	patient.StationID = nil
	return patient, nil
}

// Occupancy counts the patients holding each station
func (m *StationManager) Occupancy() map[int]int {
	counts := make(map[int]int)
	for _, p := range m.stationed() {
		counts[*p.StationID]++
	}
	return counts
}

// Stations lists every station in range with its occupants
func (m *StationManager) Stations() []StationView {
	byStation := make(map[int][]models.Patient)
	for _, p := range m.stationed() {
		byStation[*p.StationID] = append(byStation[*p.StationID], p)
	}

	views := make([]StationView, 0, m.totalStations)
	for id := 1; id <= m.totalStations; id++ {
		occupants := byStation[id]
		if occupants == nil {
			occupants = []models.Patient{}
		}
		views = append(views, StationView{ID: id, Count: len(occupants), Occupants: occupants})
	}
	return views
}

func (m *StationManager) occupants(stationID int) []models.Patient {
	var out []models.Patient
	for _, p := range m.stationed() {
		if *p.StationID == stationID {
			out = append(out, p)
		}
	}
	return out
}

// stationed returns non-completed patients holding a station, oldest check-in first
func (m *StationManager) stationed() []models.Patient {
	patients := m.store.Patients()
	out := make([]models.Patient, 0, len(patients))
	for _, p := range patients {
		if p.HasStation() && p.Status != models.StatusCompleted {
			out = append(out, p)
		}
	}
	return out
}
