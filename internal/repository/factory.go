package repository

import (
	"gorm.io/gorm"
)

// Factory manages all repositories
type Factory struct {
	WebsiteRepository WebsiteRepository
	ReportRepository  ReportRepository
}

// NewRepositoryFactory creates a repository factory with all repositories
func NewRepositoryFactory(db *gorm.DB) *Factory {
	websites := NewWebsiteRepository(db)
	return &Factory{
		WebsiteRepository: websites,
		ReportRepository:  NewReportRepository(db, websites),
	}
}
