// internal/models/models.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Website is a page URL that has been scored at least once
type Website struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	URL       string         `gorm:"type:varchar(2048);not null;uniqueIndex"`
	Title     string         `gorm:"type:varchar(255)"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
	// Relationships
	Reports []ContentReport `gorm:"foreignKey:WebsiteID"`
}

// ContentReport is a stored content analysis report
type ContentReport struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	WebsiteID    *uuid.UUID     `gorm:"type:uuid;index"`
	URL          string         `gorm:"type:varchar(2048);index"`
	Fingerprint  string         `gorm:"type:varchar(64);index"`
	OverallScore float64        `gorm:"not null;index"`
	Grade        string         `gorm:"type:varchar(4);not null"`
	Status       string         `gorm:"type:varchar(20);not null;index"`
	Language     string         `gorm:"type:varchar(16)"`
	WordCount    int            `gorm:"not null;default:0"`
	DurationMs   int64          `gorm:"not null;default:0"`
	Assessor     string         `gorm:"type:varchar(50)"`
	Report       datatypes.JSON `gorm:"type:jsonb;not null"`
	AnalyzedAt   time.Time      `gorm:"not null;index"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;index"`
	// Relationships
	Scores          []ComponentScore       `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE"`
	Recommendations []ReportRecommendation `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE"`
}

// ComponentScore is the score of one analyzer inside a report
type ComponentScore struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReportID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Component string    `gorm:"type:varchar(50);not null;index"`
	Score     float64   `gorm:"not null"`
	Weight    float64   `gorm:"not null"`
	Grade     string    `gorm:"type:varchar(4)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// ReportRecommendation is one entry of a report's merged recommendation list
type ReportRecommendation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReportID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Position  int       `gorm:"not null"`
	Type      string    `gorm:"type:varchar(20);not null;index"` // error, warning, suggestion
	Category  string    `gorm:"type:varchar(50);not null;index"`
	Impact    string    `gorm:"type:varchar(10);not null"` // high, medium, low
	Message   string    `gorm:"type:text;not null"`
	Fix       string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
