package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"clinic-queue-dashboard/internal/models"
	"clinic-queue-dashboard/internal/repository"

	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("connection refused")

// fakePersistence is an in-memory patient store used only by unit tests
type fakePersistence struct {
	mu          sync.Mutex
	departments []models.Department
	patients    map[string]models.Patient
	order       []string
	calls       []models.RecentCallEntry
	nextID      int
	failOn      map[string]error
	counts      map[string]int
}

func newFakePersistence() *fakePersistence {
	return &fakePersistence{
		departments: []models.Department{
			{ID: "dep-ct", Name: "CT", IsActive: true},
			{ID: "dep-mammo", Name: "Mammo", IsActive: true},
			{ID: "dep-xray", Name: "X-Ray", IsActive: true},
		},
		patients: make(map[string]models.Patient),
		failOn:   make(map[string]error),
		counts:   make(map[string]int),
	}
}

func (f *fakePersistence) fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[op] = err
}

func (f *fakePersistence) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[op]
}

func (f *fakePersistence) enter(op string) error {
	f.counts[op]++
	return f.failOn[op]
}

// seed stores a patient row directly, bypassing the queue
func (f *fakePersistence) seed(p models.Patient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.Priority == "" {
		p.Priority = models.PriorityRegular
	}
	f.patients[p.ID] = p
	f.order = append(f.order, p.ID)
}

func (f *fakePersistence) row(id string) models.Patient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.patients[id].Clone()
}

func (f *fakePersistence) ListDepartments(ctx context.Context) ([]models.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListDepartments"); err != nil {
		return nil, err
	}
	out := make([]models.Department, len(f.departments))
	copy(out, f.departments)
	return out, nil
}

// ListPatients returns rows in storage order, which deliberately differs from check-in order
func (f *fakePersistence) ListPatients(ctx context.Context) ([]models.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListPatients"); err != nil {
		return nil, err
	}
	names := make(map[string]string, len(f.departments))
	for _, d := range f.departments {
		names[d.ID] = d.Name
	}
	out := make([]models.Patient, 0, len(f.order))
	for _, id := range f.order {
		p, ok := f.patients[id]
		if !ok {
			continue
		}
		p = p.Clone()
		p.DepartmentName = names[p.DepartmentID]
		if p.DepartmentName == "" {
			p.DepartmentName = repository.UnknownDepartment
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePersistence) InsertPatient(ctx context.Context, patient models.Patient) (models.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("InsertPatient"); err != nil {
		return models.Patient{}, err
	}
	f.nextID++
	patient.ID = fmt.Sprintf("p-new-%d", f.nextID)
	f.patients[patient.ID] = patient.Clone()
	f.order = append(f.order, patient.ID)
	return patient, nil
}

func (f *fakePersistence) UpdatePatientStatus(ctx context.Context, id string, status models.PatientStatus, fields models.StatusFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdatePatientStatus"); err != nil {
		return err
	}
	p, ok := f.patients[id]
	if !ok {
		return repository.ErrPatientNotFound
	}
	f.patients[id] = applyStatus(p, status, fields)
	return nil
}

func (f *fakePersistence) DeletePatient(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeletePatient"); err != nil {
		return err
	}
	if _, ok := f.patients[id]; !ok {
		return repository.ErrPatientNotFound
	}
	delete(f.patients, id)
	kept := f.calls[:0]
	for _, c := range f.calls {
		if c.PatientID != id {
			kept = append(kept, c)
		}
	}
	f.calls = kept
	return nil
}

func (f *fakePersistence) UpdatePatientStation(ctx context.Context, id string, stationID *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdatePatientStation"); err != nil {
		return err
	}
	p, ok := f.patients[id]
	if !ok {
		return repository.ErrPatientNotFound
	}
	if stationID == nil {
		p.StationID = nil
	} else {
		s := *stationID
		p.StationID = &s
	}
	f.patients[id] = p
	return nil
}

func (f *fakePersistence) BulkUpdateStatus(ctx context.Context, ids []string, status models.PatientStatus, fields models.StatusFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("BulkUpdateStatus"); err != nil {
		return err
	}
	for _, id := range ids {
		if p, ok := f.patients[id]; ok {
			f.patients[id] = applyStatus(p, status, fields)
		}
	}
	return nil
}

func (f *fakePersistence) BulkUpdateDepartment(ctx context.Context, ids []string, departmentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("BulkUpdateDepartment"); err != nil {
		return err
	}
	for _, id := range ids {
		if p, ok := f.patients[id]; ok {
			p.DepartmentID = departmentID
			f.patients[id] = p
		}
	}
	return nil
}

func (f *fakePersistence) InsertRecentCall(ctx context.Context, patientID, calledBy string, calledAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("InsertRecentCall"); err != nil {
		return err
	}
	f.calls = append(f.calls, models.RecentCallEntry{PatientID: patientID, CalledAt: calledAt, CalledBy: calledBy})
	return nil
}

func (f *fakePersistence) ListRecentCalls(ctx context.Context, limit int) ([]models.RecentCallEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListRecentCalls"); err != nil {
		return nil, err
	}
	out := make([]models.RecentCallEntry, 0, len(f.calls))
	for _, c := range f.calls {
		if _, ok := f.patients[c.PatientID]; ok {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CalledAt.After(out[j].CalledAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func applyStatus(p models.Patient, status models.PatientStatus, fields models.StatusFields) models.Patient {
	p.Status = status
	if fields.CompletedAt != nil {
		at := *fields.CompletedAt
		p.CompletedAt = &at
	}
	if fields.StationID != nil {
		s := *fields.StationID
		p.StationID = &s
	}
	if fields.ClearStation {
		p.StationID = nil
	}
	return p
}

var baseTime = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

// stepClock advances one minute per reading
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: baseTime.Add(time.Hour)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func at(minutes int) time.Time {
	return baseTime.Add(time.Duration(minutes) * time.Minute)
}

func station(n int) *int {
	return &n
}

func patient(id, department string, status models.PatientStatus, checkedIn time.Time) models.Patient {
	return models.Patient{
		ID:           id,
		Name:         "Patient " + id,
		DepartmentID: department,
		Status:       status,
		CheckedInAt:  checkedIn,
	}
}

func newTestService(t *testing.T, fp *fakePersistence, opts Options) *QueueService {
	t.Helper()
	if opts.Clock == nil {
		opts.Clock = newStepClock().Now
	}
	svc := NewQueueService(fp, opts)
	require.NoError(t, svc.Load(context.Background()))
	return svc
}

func allPatients(t *testing.T, svc *QueueService) []models.Patient {
	t.Helper()
	patients, err := svc.Patients(ViewAll, PatientQuery{})
	require.NoError(t, err)
	return patients
}

// assertInvariants checks the record-level rules over the whole collection
func assertInvariants(t *testing.T, patients []models.Patient) {
	t.Helper()
	for _, p := range patients {
		if p.Status == models.StatusCompleted {
			require.NotNil(t, p.CompletedAt, "completed patient %s has no completedAt", p.ID)
		} else {
			require.Nil(t, p.CompletedAt, "patient %s has completedAt while %s", p.ID, p.Status)
		}
		if p.CompletedAt != nil {
			require.Nil(t, p.StationID, "completed patient %s still holds a station", p.ID)
		}
		if p.StationID != nil {
			require.True(t, p.Status.Active(), "patient %s holds a station while %s", p.ID, p.Status)
		}
	}
}
