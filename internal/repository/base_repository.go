package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository defines common repository operations
type Repository interface {
	Create(ctx context.Context, entity interface{}) error
	FindByID(ctx context.Context, id interface{}, entity interface{}) error
	Delete(ctx context.Context, entity interface{}) error
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// BaseRepository implements basic repository operations
type BaseRepository struct {
	DB *gorm.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *gorm.DB) *BaseRepository {
	return &BaseRepository{DB: db}
}

// Create creates a new entity
func (r *BaseRepository) Create(ctx context.Context, entity interface{}) error {
	return r.DB.WithContext(ctx).Create(entity).Error
}

// FindByID finds an entity by primary key
func (r *BaseRepository) FindByID(ctx context.Context, id interface{}, entity interface{}) error {
	return r.DB.WithContext(ctx).First(entity, "id = ?", id).Error
}

// Delete deletes an entity
func (r *BaseRepository) Delete(ctx context.Context, entity interface{}) error {
	return r.DB.WithContext(ctx).Delete(entity).Error
}

// Transaction runs operations in a transaction
func (r *BaseRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(fn)
}

// pagination normalizes page and pageSize and returns the row offset
func pagination(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize, (page - 1) * pageSize
}
