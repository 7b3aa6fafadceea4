package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"taskdesk/internal/model"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// GetByID retrieves a task with its allocations, comments and flags
func (r *TaskRepository) GetByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).
		Preload("Allocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("allocations.assigned_at, allocations.id")
		}).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at, comments.id")
		}).
		Preload("Flags").
		First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// ListByCreatedRange retrieves all tasks created within [start, end] inclusive
func (r *TaskRepository) ListByCreatedRange(ctx context.Context, start, end time.Time) ([]model.Task, error) {
	var tasks []model.Task
	result := r.db.WithContext(ctx).
		Preload("Allocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("allocations.assigned_at, allocations.id")
		}).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at, comments.id")
		}).
		Preload("Flags").
		Where("created_at >= ? AND created_at <= ?", start, end).
		Order("created_at DESC").
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// Update saves the full field set of an existing task
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Omit("Allocations", "Comments", "Flags").Save(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// UpdateStatus applies a status change as a partial update. The caller is
// expected to have run the change through model.ApplyTransition; the
// closed_at and rating values passed here are its output.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id uint, status model.Status, closedAt *time.Time, rating *int) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":    status,
			"closed_at": closedAt,
			"rating":    rating,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// SoftDelete marks a task as deleted without removing the row
func (r *TaskRepository) SoftDelete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// SetParent links a child task to a parent. The child must not already
// have a parent; callers unlink first. No cycle check is performed here.
func (r *TaskRepository) SetParent(ctx context.Context, childID, parentID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var child model.Task
		if err := tx.First(&child, "id = ?", childID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}
		if child.ParentID != nil {
			return ErrAlreadyLinked
		}

		var count int64
		if err := tx.Model(&model.Task{}).Where("id = ?", parentID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrParentNotFound
		}

		return tx.Model(&model.Task{}).Where("id = ?", childID).Update("parent_id", parentID).Error
	})
}

// ClearParent removes the parent reference from a child task
func (r *TaskRepository) ClearParent(ctx context.Context, childID uint) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", childID).
		Update("parent_id", nil)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// ReplaceFlags swaps the task's flag membership set
func (r *TaskRepository) ReplaceFlags(ctx context.Context, task *model.Task, flags []model.Flag) error {
	return r.db.WithContext(ctx).Model(task).Association("Flags").Replace(flags)
}

// Search finds link candidates by a case-insensitive term over the title
// and requester name, optionally narrowed to tasks holding an active
// allocation for any of the given resources.
func (r *TaskRepository) Search(ctx context.Context, term string, resourceIDs []uint) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Model(&model.Task{}).
		Preload("Allocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("allocations.assigned_at, allocations.id")
		}).
		Distinct("tasks.*")

	if term != "" {
		pattern := "%" + term + "%"
		q = q.Where("tasks.title ILIKE ? OR tasks.requester_name ILIKE ?", pattern, pattern)
	}
	if len(resourceIDs) > 0 {
		q = q.Joins("JOIN allocations ON allocations.task_id = tasks.id AND allocations.removed_at IS NULL").
			Where("allocations.resource_id IN ?", resourceIDs)
	}

	var tasks []model.Task
	if err := q.Order("tasks.created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}
