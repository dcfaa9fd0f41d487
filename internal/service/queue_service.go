package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"clinic-queue-dashboard/internal/lock"
	"clinic-queue-dashboard/internal/models"

	"go.uber.org/zap"
)

const (
	DefaultWriteTimeout          = 5 * time.Second
	DefaultRecentCallsFetchLimit = 20
	DefaultCalledBy              = "System"
)

// Options configures a QueueService. Zero values fall back to the defaults.
type Options struct {
	TotalStations         int
	StationPolicy         StationPolicy
	RecentCallsLimit      int
	RecentCallsFetchLimit int
	CalledBy              string
	WriteTimeout          time.Duration
	Locker                lock.Locker
	Audit                 AuditRecorder
	Logger                *zap.Logger
	Clock                 func() time.Time
	Location              *time.Location // day boundary for Stats, UTC when nil
}

// AuditRecorder receives one entry per applied queue operation.
// repository.AuditRepository is the production implementation.
type AuditRecorder interface {
	RecordOperation(ctx context.Context, action, details string, at time.Time) error
}

// QueueService is the boundary the presentation layer talks to.
// Every mutation validates against the store, writes remotely under the writer lock
// and then re-reads the collection; the in-memory state never changes optimistically.
type QueueService struct {
	persistence  Persistence
	store        *QueueStore
	ledger       *RecentCallsLedger
	transitions  *TransitionEngine
	stations     *StationManager
	bulk         *BulkCoordinator
	locker       lock.Locker
	audit        AuditRecorder
	logger       *zap.Logger
	writeTimeout time.Duration
	fetchLimit   int
	now          func() time.Time
	location     *time.Location

	// held across write+refresh and by background refreshes so a stale read never lands last
	syncMu sync.Mutex
}

func NewQueueService(persistence Persistence, opts Options) *QueueService {
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Locker == nil {
		opts.Locker = lock.NewLocalLocker()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.RecentCallsLimit < 1 {
		opts.RecentCallsLimit = DefaultRecentCallsLimit
	}
	if opts.RecentCallsFetchLimit < opts.RecentCallsLimit {
		opts.RecentCallsFetchLimit = DefaultRecentCallsFetchLimit
		if opts.RecentCallsFetchLimit < opts.RecentCallsLimit {
			opts.RecentCallsFetchLimit = opts.RecentCallsLimit
		}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.CalledBy == "" {
		opts.CalledBy = DefaultCalledBy
	}

	store := NewQueueStore(persistence)
	ledger := NewRecentCallsLedger(opts.RecentCallsLimit)
	transitions := NewTransitionEngine(store, ledger, persistence, opts.CalledBy, opts.Clock)

	return &QueueService{
		persistence:  persistence,
		store:        store,
		ledger:       ledger,
		transitions:  transitions,
		stations:     NewStationManager(store, transitions, persistence, opts.TotalStations, opts.StationPolicy),
		bulk:         NewBulkCoordinator(store, persistence, opts.Clock),
		locker:       opts.Locker,
		audit:        opts.Audit,
		logger:       opts.Logger,
		writeTimeout: opts.WriteTimeout,
		fetchLimit:   opts.RecentCallsFetchLimit,
		now:          opts.Clock,
		location:     opts.Location,
	}
}

// Load fetches departments, patients and recent calls for a new session
func (s *QueueService) Load(ctx context.Context) error {
	if err := s.RefreshDepartments(ctx); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Refresh re-reads patients and recent calls; the latest fetch wins
func (s *QueueService) Refresh(ctx context.Context) error {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *QueueService) RefreshDepartments(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	if err := s.store.RefreshDepartments(ctx); err != nil {
		return &PersistenceError{Op: "refresh departments", Err: err}
	}
	return nil
}

func (s *QueueService) refreshLocked(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	if err := s.store.Refresh(ctx); err != nil {
		return &PersistenceError{Op: "refresh patients", Err: err}
	}
	calls, err := s.persistence.ListRecentCalls(ctx, s.fetchLimit)
	if err != nil {
		return &PersistenceError{Op: "refresh recent calls", Err: err}
	}
	s.ledger.Load(calls)
	return nil
}

// mutate runs one write under the writer lock and re-reads the store afterwards.
// Validation errors return before anything remote happens; a failed write still
// triggers the re-read so the view reflects whatever the store holds.
func (s *QueueService) mutate(ctx context.Context, op, subject string, write func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	release, err := s.locker.Acquire(ctx)
	if err != nil {
		return &PersistenceError{Op: "acquire writer lock", Err: err}
	}
	defer release()

	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	writeErr := write(ctx)
	if writeErr != nil && IsValidation(writeErr) {
		s.logger.Info("queue operation rejected", zap.String("op", op), zap.Error(writeErr))
		return writeErr
	}

	refreshErr := s.refreshLocked(context.WithoutCancel(ctx))
	if writeErr != nil {
		s.logger.Error("queue operation failed", zap.String("op", op), zap.Error(writeErr))
		if refreshErr != nil {
			s.logger.Warn("refresh after failed write also failed", zap.String("op", op), zap.Error(refreshErr))
		}
		return writeErr
	}
	if refreshErr != nil {
		s.logger.Error("refresh after write failed", zap.String("op", op), zap.Error(refreshErr))
		return refreshErr
	}

	s.recordAudit(ctx, op, subject)
	s.logger.Info("queue operation applied", zap.String("op", op), zap.String("subject", subject))
	return nil
}

// recordAudit is best effort; the queue state is already committed
func (s *QueueService) recordAudit(ctx context.Context, op, subject string) {
	if s.audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()
	if err := s.audit.RecordOperation(ctx, op, subject, s.now()); err != nil {
		s.logger.Warn("failed to record audit entry", zap.String("op", op), zap.Error(err))
	}
}

// CheckIn adds a patient to the waitlist
func (s *QueueService) CheckIn(ctx context.Context, input models.NewPatient) (models.Patient, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.Patient{}, &ValidationError{Field: "name", Message: "must not be empty"}
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityRegular
	}
	if !priority.Valid() {
		return models.Patient{}, &ValidationError{Field: "priority", Message: "must be Regular, Priority or Emergency"}
	}

	if !s.store.HasDepartments() {
		if err := s.RefreshDepartments(ctx); err != nil {
			return models.Patient{}, err
		}
	}
	department, ok := s.store.ResolveDepartment(input.Department)
	if !ok {
		return models.Patient{}, &DepartmentNotFoundError{Department: input.Department}
	}

	patient := models.Patient{
		Name:            name,
		Phone:           input.Phone,
		DepartmentID:    department.ID,
		DepartmentName:  department.Name,
		AppointmentType: input.AppointmentType,
		Priority:        priority,
		Notes:           input.Notes,
		ScanTime:        input.ScanTime,
		Status:          models.StatusWaiting,
		CheckedInAt:     s.now(),
	}

	var created models.Patient
	err := s.mutate(ctx, "check_in", name, func(ctx context.Context) error {
		inserted, err := s.persistence.InsertPatient(ctx, patient)
		if err != nil {
			return wrapPersistence("insert patient", "", err)
		}
		created = inserted
		return nil
	})
	if err != nil {
		return models.Patient{}, err
	}
	return s.current(created), nil
}

// UpdateStatus runs one status transition
func (s *QueueService) UpdateStatus(ctx context.Context, patientID string, status models.PatientStatus) (models.Patient, error) {
	var updated models.Patient
	err := s.mutate(ctx, "update_status", patientID+" -> "+string(status), func(ctx context.Context) error {
		p, err := s.transitions.Transition(ctx, patientID, status)
		updated = p
		return err
	})
	if err != nil {
		return models.Patient{}, err
	}
	return s.current(updated), nil
}

// RemovePatient hard-deletes a patient
func (s *QueueService) RemovePatient(ctx context.Context, patientID string) error {
	return s.mutate(ctx, "remove_patient", patientID, func(ctx context.Context) error {
		if _, ok := s.store.Patient(patientID); !ok {
			return &NotFoundError{Resource: "patient", ID: patientID}
		}
		return wrapPersistence("delete patient", patientID, s.persistence.DeletePatient(ctx, patientID))
	})
}

// AssignStation puts a patient on a station and marks them called
func (s *QueueService) AssignStation(ctx context.Context, patientID string, stationID int) (models.Patient, error) {
	var updated models.Patient
	err := s.mutate(ctx, "assign_station", patientID+" -> station "+strconv.Itoa(stationID), func(ctx context.Context) error {
		p, err := s.stations.Assign(ctx, patientID, stationID)
		updated = p
		return err
	})
	if err != nil {
		return models.Patient{}, err
	}
	return s.current(updated), nil
}

// ReleaseStation frees a patient's station without changing status
func (s *QueueService) ReleaseStation(ctx context.Context, patientID string) (models.Patient, error) {
	var updated models.Patient
	err := s.mutate(ctx, "release_station", patientID, func(ctx context.Context) error {
		p, err := s.stations.Release(ctx, patientID)
		updated = p
		return err
	})
	if err != nil {
		return models.Patient{}, err
	}
	return s.current(updated), nil
}

// CompleteAll completes a set of patients in one remote request
func (s *QueueService) CompleteAll(ctx context.Context, patientIDs []string) (int, error) {
	var n int
	err := s.mutate(ctx, "complete_all", strings.Join(patientIDs, ","), func(ctx context.Context) error {
		var err error
		n, err = s.bulk.CompleteAll(ctx, patientIDs)
		return err
	})
	return n, err
}

// TransferPatients moves a set of patients to another department in one remote request
func (s *QueueService) TransferPatients(ctx context.Context, patientIDs []string, target string) (int, error) {
	var n int
	err := s.mutate(ctx, "transfer_patients", strings.Join(patientIDs, ",")+" -> "+target, func(ctx context.Context) error {
		var err error
		n, err = s.bulk.TransferPatients(ctx, patientIDs, target)
		return err
	})
	return n, err
}

// Patients returns a view narrowed by query
func (s *QueueService) Patients(view View, query PatientQuery) ([]models.Patient, error) {
	patients, err := s.store.View(view)
	if err != nil {
		return nil, err
	}
	return Search(patients, query), nil
}

func (s *QueueService) Patient(patientID string) (models.Patient, error) {
	p, ok := s.store.Patient(patientID)
	if !ok {
		return models.Patient{}, &NotFoundError{Resource: "patient", ID: patientID}
	}
	return p, nil
}

func (s *QueueService) Waiting() []models.Patient   { return s.store.Waiting() }
func (s *QueueService) Active() []models.Patient    { return s.store.Active() }
func (s *QueueService) Completed() []models.Patient { return s.store.Completed() }
func (s *QueueService) Lobby() LobbyView            { return s.store.Lobby() }

// Stats returns the header counters; "today" starts at midnight in the clinic's location
func (s *QueueService) Stats() QueueStats {
	now := s.now().In(s.location)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.store.Stats(dayStart)
}

func (s *QueueService) Departments() []models.Department {
	return s.store.Departments()
}

// DepartmentView returns the active patients of a department given by id or name
func (s *QueueService) DepartmentView(ref string) (models.Department, []models.Patient, error) {
	department, ok := s.store.ResolveDepartment(ref)
	if !ok {
		return models.Department{}, nil, &DepartmentNotFoundError{Department: ref}
	}
	return department, s.store.ByDepartment(department.ID), nil
}

func (s *QueueService) Stations() []StationView {
	return s.stations.Stations()
}

func (s *QueueService) Occupancy() map[int]int {
	return s.stations.Occupancy()
}

// RefreshedAt is when the patient collection was last replaced
func (s *QueueService) RefreshedAt() time.Time { return s.store.RefreshedAt() }

func (s *QueueService) TotalStations() int {
	return s.stations.TotalStations()
}

// RecentCalls lists called and stationed patients for the recent-calls panel
func (s *QueueService) RecentCalls(includeCompleted bool) []RecentCallView {
	return s.ledger.List(includeCompleted, s.store.Patients())
}

// current prefers the refreshed copy of p and falls back to the write result
func (s *QueueService) current(p models.Patient) models.Patient {
	if fresh, ok := s.store.Patient(p.ID); ok {
		return fresh
	}
	return p
}

// IsPersistence reports whether err came from a failed remote operation
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
