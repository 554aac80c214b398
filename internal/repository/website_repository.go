package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chynybekuuludastan/content_optimizer/internal/models"
)

// WebsiteRepository defines operations for Website model
type WebsiteRepository interface {
	Repository
	FindByURL(ctx context.Context, url string) (*models.Website, error)
	FindOrCreate(ctx context.Context, url, title string) (*models.Website, error)
	FindAll(ctx context.Context, page, pageSize int) ([]*models.Website, int64, error)
}

// websiteRepository implements WebsiteRepository
type websiteRepository struct {
	*BaseRepository
}

// NewWebsiteRepository creates a new website repository
func NewWebsiteRepository(db *gorm.DB) WebsiteRepository {
	return &websiteRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// FindByURL finds a website by URL
func (r *websiteRepository) FindByURL(ctx context.Context, url string) (*models.Website, error) {
	var website models.Website
	err := r.DB.WithContext(ctx).Where("url = ?", url).First(&website).Error
	if err != nil {
		return nil, err
	}
	return &website, nil
}

// FindOrCreate returns the website for url, creating it on first sight.
// A non-empty title replaces the stored one.
func (r *websiteRepository) FindOrCreate(ctx context.Context, url, title string) (*models.Website, error) {
	website, err := r.FindByURL(ctx, url)
	switch {
	case err == nil:
		if title != "" && title != website.Title {
			website.Title = title
			if err := r.DB.WithContext(ctx).Model(website).Update("title", title).Error; err != nil {
				return nil, err
			}
		}
		return website, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	website = &models.Website{URL: url, Title: title}
	// concurrent first analyses of the same URL race on the unique index
	err = r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "url"}}, DoNothing: true}).
		Create(website).Error
	if err != nil {
		return nil, err
	}
	return r.FindByURL(ctx, url)
}

// FindAll retrieves all websites with pagination
func (r *websiteRepository) FindAll(ctx context.Context, page, pageSize int) ([]*models.Website, int64, error) {
	var websites []*models.Website
	var count int64

	if err := r.DB.WithContext(ctx).Model(&models.Website{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	_, pageSize, offset := pagination(page, pageSize)
	if err := r.DB.WithContext(ctx).Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&websites).Error; err != nil {
		return nil, 0, err
	}

	return websites, count, nil
}
