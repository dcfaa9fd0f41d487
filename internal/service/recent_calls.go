package service

import (
	"sort"
	"sync"
	"time"

	"clinic-queue-dashboard/internal/models"
)

// DefaultRecentCallsLimit is the ledger size used by the dashboard
const DefaultRecentCallsLimit = 10

// RecentCallView is one row of the recent-calls panel.
// CalledAt is nil for patients that hold a station but have no call on record.
type RecentCallView struct {
	models.Patient
	CalledAt *time.Time `json:"called_at,omitempty"`
}

// RecentCallsLedger is a bounded most-recently-called list keyed by patient
type RecentCallsLedger struct {
	limit int

	mu      sync.Mutex
	entries []models.RecentCallEntry
}

func NewRecentCallsLedger(limit int) *RecentCallsLedger {
	if limit < 1 {
		limit = DefaultRecentCallsLimit
	}
	return &RecentCallsLedger{limit: limit}
}

// RecordCall moves the patient's entry to the front, evicting the oldest entry on overflow
func (l *RecentCallsLedger) RecordCall(patientID, calledBy string, calledAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]models.RecentCallEntry, 0, l.limit)
	entries = append(entries, models.RecentCallEntry{
		PatientID: patientID,
		CalledAt:  calledAt,
		CalledBy:  calledBy,
	})
	for _, e := range l.entries {
		if len(entries) == l.limit {
			break
		}
		if e.PatientID != patientID {
			entries = append(entries, e)
		}
	}
	l.entries = entries
}

// Load replaces the ledger with remotely fetched calls, keeping each patient's latest call
func (l *RecentCallsLedger) Load(calls []models.RecentCallEntry) {
	sorted := make([]models.RecentCallEntry, len(calls))
	copy(sorted, calls)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CalledAt.After(sorted[j].CalledAt)
	})

	seen := make(map[string]bool, len(sorted))
	entries := make([]models.RecentCallEntry, 0, l.limit)
	for _, c := range sorted {
		if len(entries) == l.limit {
			break
		}
		if seen[c.PatientID] {
			continue
		}
		seen[c.PatientID] = true
		entries = append(entries, c)
	}

	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()
}

// Entries returns the ledger newest first
func (l *RecentCallsLedger) Entries() []models.RecentCallEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.RecentCallEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *RecentCallsLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// List merges the call history with the currently stationed patients.
// Stationed patients sort first; ties break on the latest check-in.
func (l *RecentCallsLedger) List(includeCompleted bool, patients []models.Patient) []RecentCallView {
	byID := make(map[string]models.Patient, len(patients))
	for _, p := range patients {
		byID[p.ID] = p
	}

	seen := make(map[string]bool)
	views := make([]RecentCallView, 0, l.limit)
	add := func(p models.Patient, calledAt *time.Time) {
		if seen[p.ID] {
			return
		}
		seen[p.ID] = true
		if !includeCompleted && p.Status == models.StatusCompleted {
			return
		}
		views = append(views, RecentCallView{Patient: p.Clone(), CalledAt: calledAt})
	}

	for _, e := range l.Entries() {
		p, ok := byID[e.PatientID]
		if !ok {
			continue
		}
		calledAt := e.CalledAt
		add(p, &calledAt)
	}
	for _, p := range patients {
		if p.HasStation() {
			add(p, nil)
		}
	}

	sort.SliceStable(views, func(i, j int) bool {
		si, sj := views[i].HasStation(), views[j].HasStation()
		if si != sj {
			return si
		}
		return views[i].CheckedInAt.After(views[j].CheckedInAt)
	})
	return views
}
