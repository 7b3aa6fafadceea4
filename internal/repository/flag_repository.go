package repository

import (
	"context"

	"gorm.io/gorm"

	"taskdesk/internal/model"
)

type FlagRepository struct {
	db *gorm.DB
}

func NewFlagRepository(db *gorm.DB) *FlagRepository {
	return &FlagRepository{db: db}
}

// ListAll returns the full flag catalog. The catalog is small and static;
// callers load it once per process into a model.FlagCatalog.
func (r *FlagRepository) ListAll(ctx context.Context) ([]model.Flag, error) {
	var flags []model.Flag
	result := r.db.WithContext(ctx).Order("id").Find(&flags)
	if result.Error != nil {
		return nil, result.Error
	}
	return flags, nil
}
