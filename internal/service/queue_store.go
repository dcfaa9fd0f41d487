package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"clinic-queue-dashboard/internal/models"
)

// View names one of the derived patient lists
type View string

const (
	ViewAll       View = "all"
	ViewWaiting   View = "waiting"
	ViewActive    View = "active"
	ViewCompleted View = "completed"
)

// PatientQuery narrows a view without touching the collection
type PatientQuery struct {
	Name     string
	Statuses []models.PatientStatus
}

// QueueStats are the header counters of the dashboard
type QueueStats struct {
	Waiting    int `json:"waiting"`
	Called     int `json:"called"`
	InProgress int `json:"in_progress"`
	Active     int `json:"active"`
	Completed  int `json:"completed"`
	Total      int `json:"total"`

	CompletedToday int `json:"completed_today"`
}

// LobbyView is what the waiting-room screen shows
type LobbyView struct {
	Active    []models.Patient `json:"active"`
	Completed []models.Patient `json:"completed"`
}

type patientSource interface {
	ListPatients(ctx context.Context) ([]models.Patient, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
}

// QueueStore keeps the last fetched patient collection.
// Every view is derived on read; nothing but Refresh replaces the collection.
type QueueStore struct {
	source patientSource

	mu          sync.RWMutex
	patients    []models.Patient
	departments []models.Department
	refreshedAt time.Time
}

func NewQueueStore(source patientSource) *QueueStore {
	return &QueueStore{source: source}
}

// Refresh re-reads the full patient collection; the fetched set replaces the old one
func (s *QueueStore) Refresh(ctx context.Context) error {
	patients, err := s.source.ListPatients(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch patients: %w", err)
	}

	s.mu.Lock()
	s.patients = patients
	s.refreshedAt = time.Now()
	s.mu.Unlock()
	return nil
}

// RefreshDepartments re-reads the department reference data
func (s *QueueStore) RefreshDepartments(ctx context.Context) error {
	departments, err := s.source.ListDepartments(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch departments: %w", err)
	}

	s.mu.Lock()
	s.departments = departments
	s.mu.Unlock()
	return nil
}

func (s *QueueStore) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

// Patient looks a patient up by id
func (s *QueueStore) Patient(id string) (models.Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.patients {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return models.Patient{}, false
}

// Patients returns every patient ordered by check-in time
func (s *QueueStore) Patients() []models.Patient {
	all := s.filter(func(models.Patient) bool { return true })
	sortByCheckIn(all)
	return all
}

// Waiting returns the waitlist in FIFO order
func (s *QueueStore) Waiting() []models.Patient {
	waiting := s.filter(func(p models.Patient) bool { return p.Status == models.StatusWaiting })
	sortByCheckIn(waiting)
	return waiting
}

// Active returns called and in-progress patients
func (s *QueueStore) Active() []models.Patient {
	active := s.filter(func(p models.Patient) bool { return p.Status.Active() })
	sortByCheckIn(active)
	return active
}

// Completed returns completed patients, most recently completed first
func (s *QueueStore) Completed() []models.Patient {
	completed := s.filter(func(p models.Patient) bool { return p.Status == models.StatusCompleted })
	sort.SliceStable(completed, func(i, j int) bool {
		return completedAt(completed[i]).After(completedAt(completed[j]))
	})
	return completed
}

// ByDepartment returns the active patients of one department
func (s *QueueStore) ByDepartment(departmentID string) []models.Patient {
	patients := s.filter(func(p models.Patient) bool {
		return p.Status.Active() && p.DepartmentID == departmentID
	})
	sortByCheckIn(patients)
	return patients
}

// View returns the named view
func (s *QueueStore) View(v View) ([]models.Patient, error) {
	switch v {
	case ViewAll, "":
		return s.Patients(), nil
	case ViewWaiting:
		return s.Waiting(), nil
	case ViewActive:
		return s.Active(), nil
	case ViewCompleted:
		return s.Completed(), nil
	}
	return nil, &ValidationError{Field: "view", Message: fmt.Sprintf("unknown view %q", v)}
}

func (s *QueueStore) Lobby() LobbyView {
	return LobbyView{
		Active:    s.Active(),
		Completed: s.Completed(),
	}
}

// Stats counts patients per status; CompletedToday counts completions at or after dayStart
func (s *QueueStore) Stats(dayStart time.Time) QueueStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats QueueStats
	for _, p := range s.patients {
		switch p.Status {
		case models.StatusWaiting:
			stats.Waiting++
		case models.StatusCalled:
			stats.Called++
		case models.StatusInProgress:
			stats.InProgress++
		case models.StatusCompleted:
			stats.Completed++
			if !completedAt(p).Before(dayStart) {
				stats.CompletedToday++
			}
		}
	}
	stats.Active = stats.Called + stats.InProgress
	stats.Total = len(s.patients)
	return stats
}

func (s *QueueStore) Departments() []models.Department {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Department, len(s.departments))
	copy(out, s.departments)
	return out
}

// HasDepartments reports whether reference data has been loaded
func (s *QueueStore) HasDepartments() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.departments) > 0
}

// ResolveDepartment matches ref against department ids first, then display names
func (s *QueueStore) ResolveDepartment(ref string) (models.Department, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Department{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.departments {
		if d.ID == ref {
			return d, true
		}
	}
	for _, d := range s.departments {
		if d.Name == ref {
			return d, true
		}
	}
	for _, d := range s.departments {
		if strings.EqualFold(d.Name, ref) {
			return d, true
		}
	}
	return models.Department{}, false
}

func (s *QueueStore) filter(keep func(models.Patient) bool) []models.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Search applies a name substring and status filter on top of a view
func Search(patients []models.Patient, q PatientQuery) []models.Patient {
	name := strings.ToLower(strings.TrimSpace(q.Name))
	out := make([]models.Patient, 0, len(patients))
	for _, p := range patients {
		if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
			continue
		}
		if len(q.Statuses) > 0 && !hasStatus(q.Statuses, p.Status) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func hasStatus(statuses []models.PatientStatus, status models.PatientStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func sortByCheckIn(patients []models.Patient) {
	sort.SliceStable(patients, func(i, j int) bool {
		if patients[i].CheckedInAt.Equal(patients[j].CheckedInAt) {
			return patients[i].ID < patients[j].ID
		}
		return patients[i].CheckedInAt.Before(patients[j].CheckedInAt)
	})
}

func completedAt(p models.Patient) time.Time {
	if p.CompletedAt == nil {
		return time.Time{}
	}
	return *p.CompletedAt
}
