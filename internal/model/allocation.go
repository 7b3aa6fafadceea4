package model

import (
	"time"
)

// Allocation is one resource's assignment span on a task. Removal is soft:
// the row gains a RemovedAt timestamp and stays around as history, so the
// same resource can accumulate several rows over the life of a task.
type Allocation struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	TaskID       uint       `gorm:"not null;index" json:"task_id"`
	ResourceID   uint       `gorm:"not null;index" json:"resource_id"`
	ResourceName string     `json:"resource_name"`
	AssignedAt   time.Time  `json:"assigned_at"`
	RemovedAt    *time.Time `json:"removed_at,omitempty"`
}

func (a Allocation) Active() bool {
	return a.RemovedAt == nil
}
