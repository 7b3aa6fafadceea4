package model

import (
	"time"
)

// Comment is an append-only audit entry on a task. There is no edit or
// delete path for an existing comment.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TaskID     uint      `gorm:"not null;index" json:"task_id"`
	AuthorID   uint      `gorm:"not null" json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `gorm:"not null" json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}
