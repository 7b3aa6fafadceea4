package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"taskdesk/internal/model"
)

type AllocationRepository struct {
	db *gorm.DB
}

func NewAllocationRepository(db *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// ReplaceActive reconciles the task's active allocation set against the
// requested resources. Resources newly present get a fresh row, resources
// no longer present get their active row soft-removed, and unchanged
// resources keep their original row and assigned_at. Calling twice with
// the same set is a no-op the second time.
func (r *AllocationRepository) ReplaceActive(ctx context.Context, taskID uint, resources []model.Resource) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active []model.Allocation
		if err := tx.Where("task_id = ? AND removed_at IS NULL", taskID).Find(&active).Error; err != nil {
			return err
		}

		desired := make(map[uint]model.Resource, len(resources))
		for _, res := range resources {
			desired[res.ID] = res
		}
		current := make(map[uint]model.Allocation, len(active))
		for _, a := range active {
			current[a.ResourceID] = a
		}

		now := time.Now()

		for resourceID, a := range current {
			if _, keep := desired[resourceID]; !keep {
				if err := tx.Model(&model.Allocation{}).
					Where("id = ?", a.ID).
					Update("removed_at", now).Error; err != nil {
					return err
				}
			}
		}

		for resourceID, res := range desired {
			if _, present := current[resourceID]; !present {
				alloc := model.Allocation{
					TaskID:       taskID,
					ResourceID:   resourceID,
					ResourceName: res.Name,
					AssignedAt:   now,
				}
				if err := tx.Create(&alloc).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
}

// HistoryByTask returns every allocation row for the task, active and
// removed, ordered by assigned_at ascending for audit display
func (r *AllocationRepository) HistoryByTask(ctx context.Context, taskID uint) ([]model.Allocation, error) {
	var allocations []model.Allocation
	result := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("assigned_at, id").
		Find(&allocations)
	if result.Error != nil {
		return nil, result.Error
	}
	return allocations, nil
}

// Remove soft-removes a single allocation row, used for manual audit
// correction. The row must belong to the given task.
func (r *AllocationRepository) Remove(ctx context.Context, taskID, allocationID uint) (*model.Allocation, error) {
	var alloc model.Allocation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&alloc, "id = ? AND task_id = ?", allocationID, taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAllocationNotFound
			}
			return err
		}
		if alloc.RemovedAt != nil {
			return nil
		}
		now := time.Now()
		if err := tx.Model(&model.Allocation{}).Where("id = ?", alloc.ID).Update("removed_at", now).Error; err != nil {
			return err
		}
		alloc.RemovedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &alloc, nil
}
