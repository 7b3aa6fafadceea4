package model

import (
	"time"

	"gorm.io/gorm"

	"taskdesk/internal/taskerr"
)

// Priority is an ordered scale; higher values sort as more urgent.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityUrgent
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	}
	return "unknown"
}

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusOverdue    Status = "overdue"
	StatusCancelled  Status = "cancelled"
	StatusFinished   Status = "finished"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusOpen, StatusInProgress, StatusOverdue, StatusCancelled, StatusFinished:
		return true
	}
	return false
}

// Actor identifies the user performing a mutation. It is injected by the
// caller (session middleware on the server, explicit parameter on the
// client engine) and never validated here.
type Actor struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Task struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	BusinessUnitID    uint           `gorm:"not null;index" json:"business_unit_id"`
	OperationalUnitID uint           `gorm:"not null;index" json:"operational_unit_id"`
	Priority          Priority       `gorm:"not null;default:1" json:"priority"`
	Title             string         `gorm:"not null" json:"title"`
	Status            Status         `gorm:"not null;default:'open'" json:"status"`
	RequesterID       uint           `gorm:"not null;index" json:"requester_id"`
	RequesterName     string         `json:"requester_name"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DueDate           *time.Time     `json:"due_date,omitempty"`
	ClosedAt          *time.Time     `json:"closed_at,omitempty"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
	Points            *float64       `json:"points,omitempty"`
	Rating            *int           `json:"rating,omitempty"`
	ParentID          *uint          `gorm:"index" json:"parent_id,omitempty"`

	Allocations []Allocation `gorm:"foreignKey:TaskID" json:"allocations,omitempty"`
	Comments    []Comment    `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	Flags       []Flag       `gorm:"many2many:task_flags" json:"flags,omitempty"`
}

// Validate checks the record-level invariants. A task that fails here must
// never be sent to the remote store.
func (t *Task) Validate() error {
	if t.BusinessUnitID == 0 {
		return taskerr.New(taskerr.KindValidation, "business unit is required")
	}
	if t.OperationalUnitID == 0 {
		return taskerr.New(taskerr.KindValidation, "operational unit is required")
	}
	if t.Title == "" {
		return taskerr.New(taskerr.KindValidation, "title must not be empty")
	}
	if !t.Priority.Valid() {
		return taskerr.Newf(taskerr.KindValidation, "invalid priority %d", t.Priority)
	}
	if !t.Status.Valid() {
		return taskerr.Newf(taskerr.KindValidation, "invalid status %q", t.Status)
	}
	if t.Rating != nil {
		if t.Status != StatusFinished {
			return taskerr.New(taskerr.KindValidation, "rating may only be set on a finished task")
		}
		if *t.Rating < 0 || *t.Rating > 10 {
			return taskerr.Newf(taskerr.KindValidation, "rating %d out of range 0-10", *t.Rating)
		}
	}
	return nil
}

// ActiveAllocations returns the allocations with no removal timestamp.
func (t *Task) ActiveAllocations() []Allocation {
	var active []Allocation
	for _, a := range t.Allocations {
		if a.Active() {
			active = append(active, a)
		}
	}
	return active
}

// ActiveResourceIDs returns the ids of the currently assigned resources.
func (t *Task) ActiveResourceIDs() []uint {
	var ids []uint
	for _, a := range t.Allocations {
		if a.Active() {
			ids = append(ids, a.ResourceID)
		}
	}
	return ids
}
