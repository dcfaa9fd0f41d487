package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PatientStatus is the position of a patient in the queue lifecycle
type PatientStatus string

const (
	StatusWaiting    PatientStatus = "waiting"
	StatusCalled     PatientStatus = "called"
	StatusInProgress PatientStatus = "in-progress"
	StatusCompleted  PatientStatus = "completed"
)

// Valid reports whether s is one of the known statuses
func (s PatientStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusCalled, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Active reports whether a patient in this status is being served
func (s PatientStatus) Active() bool {
	return s == StatusCalled || s == StatusInProgress
}

// Priority is captured at check-in and carried through unchanged
type Priority string

const (
	PriorityRegular   Priority = "Regular"
	PriorityPriority  Priority = "Priority"
	PriorityEmergency Priority = "Emergency"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityRegular, PriorityPriority, PriorityEmergency:
		return true
	}
	return false
}

// Patient represents the patients table
// DepartmentName is filled from the departments join and never written back
type Patient struct {
	ID              string        `gorm:"primaryKey;size:36" json:"id"`
	Name            string        `gorm:"size:255;not null" json:"name"`
	Phone           *string       `gorm:"size:50" json:"phone,omitempty"`
	DepartmentID    string        `gorm:"size:36;not null;index" json:"department_id"`
	DepartmentName  string        `gorm:"->;-:migration;column:department_name" json:"department"`
	AppointmentType *string       `gorm:"size:100" json:"appointment_type,omitempty"`
	Priority        Priority      `gorm:"size:20;not null" json:"priority"`
	Notes           *string       `gorm:"type:text" json:"notes,omitempty"`
	ScanTime        *string       `gorm:"size:50" json:"scan_time,omitempty"`
	Status          PatientStatus `gorm:"size:20;not null;index" json:"status"`
	StationID       *int          `gorm:"column:station_id" json:"station,omitempty"`
	CheckedInAt     time.Time     `gorm:"not null;index" json:"checked_in_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// TableName specifies the table name for Patient model
func (Patient) TableName() string {
	return "patients"
}

// BeforeCreate assigns the immutable patient identifier
func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Clone returns a copy that shares no pointers with p
func (p Patient) Clone() Patient {
	c := p
	c.Phone = cloneString(p.Phone)
	c.AppointmentType = cloneString(p.AppointmentType)
	c.Notes = cloneString(p.Notes)
	c.ScanTime = cloneString(p.ScanTime)
	if p.StationID != nil {
		station := *p.StationID
		c.StationID = &station
	}
	if p.CompletedAt != nil {
		completedAt := *p.CompletedAt
		c.CompletedAt = &completedAt
	}
	return c
}

// HasStation reports whether the patient currently occupies a station
func (p Patient) HasStation() bool {
	return p.StationID != nil
}

// NewPatient is the check-in payload
// Department may be a department id or its display name
type NewPatient struct {
	Name            string
	Department      string
	Phone           *string
	AppointmentType *string
	Priority        Priority
	Notes           *string
	ScanTime        *string
}

// StatusFields are the columns written alongside a status change
type StatusFields struct {
	CompletedAt  *time.Time
	StationID    *int
	ClearStation bool
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
