package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"taskdesk/internal/model"
)

type ResourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// GetByID retrieves a resource by its ID
func (r *ResourceRepository) GetByID(ctx context.Context, id uint) (*model.Resource, error) {
	var resource model.Resource
	result := r.db.WithContext(ctx).First(&resource, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, result.Error
	}
	return &resource, nil
}

// ListByIDs retrieves the resources for the given ids. Missing ids are
// reported as ErrResourceNotFound so allocation changes never reference
// people the directory does not know.
func (r *ResourceRepository) ListByIDs(ctx context.Context, ids []uint) ([]model.Resource, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var resources []model.Resource
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&resources)
	if result.Error != nil {
		return nil, result.Error
	}
	if len(resources) != len(ids) {
		return nil, ErrResourceNotFound
	}
	return resources, nil
}

// SearchByName finds assignable resources by case-insensitive name substring
func (r *ResourceRepository) SearchByName(ctx context.Context, name string) ([]model.Resource, error) {
	var resources []model.Resource
	q := r.db.WithContext(ctx)
	if name != "" {
		q = q.Where("name ILIKE ?", "%"+name+"%")
	}
	result := q.Order("name").Find(&resources)
	if result.Error != nil {
		return nil, result.Error
	}
	return resources, nil
}
