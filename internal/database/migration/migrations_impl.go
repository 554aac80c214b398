package migration

import (
	"gorm.io/gorm"
)

// RegisterMigrations returns every schema step in apply order
func RegisterMigrations() []Step {
	return []Step{
		{Name: "01_create_websites_table", Up: CreateWebsitesTable, Down: DropWebsitesTable},
		{Name: "02_create_content_reports_table", Up: CreateContentReportsTable, Down: DropContentReportsTable},
		{Name: "03_create_component_scores_table", Up: CreateComponentScoresTable, Down: DropComponentScoresTable},
		{Name: "04_create_report_recommendations_table", Up: CreateReportRecommendationsTable, Down: DropReportRecommendationsTable},
		{Name: "05_add_report_indexes", Up: AddReportIndexes, Down: RemoveReportIndexes},
	}
}

// CreateWebsitesTable creates the websites table
func CreateWebsitesTable(tx *gorm.DB) error {
	return tx.Exec(`
		CREATE TABLE IF NOT EXISTS websites (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			url VARCHAR(2048) NOT NULL,
			title VARCHAR(255),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP WITH TIME ZONE
		)
	`).Error
}

// DropWebsitesTable drops the websites table
func DropWebsitesTable(tx *gorm.DB) error {
	return tx.Exec("DROP TABLE IF EXISTS websites CASCADE").Error
}

// CreateContentReportsTable creates the content_reports table
func CreateContentReportsTable(tx *gorm.DB) error {
	return tx.Exec(`
		CREATE TABLE IF NOT EXISTS content_reports (
			id UUID PRIMARY KEY,
			website_id UUID REFERENCES websites(id) ON DELETE SET NULL,
			url VARCHAR(2048),
			fingerprint VARCHAR(64),
			overall_score DOUBLE PRECISION NOT NULL,
			grade VARCHAR(4) NOT NULL,
			status VARCHAR(20) NOT NULL,
			language VARCHAR(16),
			word_count INTEGER NOT NULL DEFAULT 0,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			assessor VARCHAR(50),
			report JSONB NOT NULL,
			analyzed_at TIMESTAMP WITH TIME ZONE NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error
}

// DropContentReportsTable drops the content_reports table
func DropContentReportsTable(tx *gorm.DB) error {
	return tx.Exec("DROP TABLE IF EXISTS content_reports CASCADE").Error
}

// CreateComponentScoresTable creates the component_scores table
func CreateComponentScoresTable(tx *gorm.DB) error {
	return tx.Exec(`
		CREATE TABLE IF NOT EXISTS component_scores (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			report_id UUID NOT NULL REFERENCES content_reports(id) ON DELETE CASCADE,
			component VARCHAR(50) NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			weight DOUBLE PRECISION NOT NULL,
			grade VARCHAR(4),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error
}

// DropComponentScoresTable drops the component_scores table
func DropComponentScoresTable(tx *gorm.DB) error {
	return tx.Exec("DROP TABLE IF EXISTS component_scores CASCADE").Error
}

// CreateReportRecommendationsTable creates the report_recommendations table
func CreateReportRecommendationsTable(tx *gorm.DB) error {
	return tx.Exec(`
		CREATE TABLE IF NOT EXISTS report_recommendations (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			report_id UUID NOT NULL REFERENCES content_reports(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			type VARCHAR(20) NOT NULL,
			category VARCHAR(50) NOT NULL,
			impact VARCHAR(10) NOT NULL,
			message TEXT NOT NULL,
			fix TEXT,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error
}

// DropReportRecommendationsTable drops the report_recommendations table
func DropReportRecommendationsTable(tx *gorm.DB) error {
	return tx.Exec("DROP TABLE IF EXISTS report_recommendations CASCADE").Error
}

var reportIndexes = []struct {
	name, ddl string
}{
	{"idx_websites_url", "CREATE UNIQUE INDEX IF NOT EXISTS idx_websites_url ON websites(url)"},
	{"idx_websites_deleted_at", "CREATE INDEX IF NOT EXISTS idx_websites_deleted_at ON websites(deleted_at)"},
	{"idx_content_reports_website_id", "CREATE INDEX IF NOT EXISTS idx_content_reports_website_id ON content_reports(website_id)"},
	{"idx_content_reports_url_analyzed_at", "CREATE INDEX IF NOT EXISTS idx_content_reports_url_analyzed_at ON content_reports(url, analyzed_at DESC)"},
	{"idx_content_reports_fingerprint", "CREATE INDEX IF NOT EXISTS idx_content_reports_fingerprint ON content_reports(fingerprint)"},
	{"idx_content_reports_status", "CREATE INDEX IF NOT EXISTS idx_content_reports_status ON content_reports(status)"},
	{"idx_component_scores_report_id", "CREATE INDEX IF NOT EXISTS idx_component_scores_report_id ON component_scores(report_id)"},
	{"idx_component_scores_component", "CREATE INDEX IF NOT EXISTS idx_component_scores_component ON component_scores(component)"},
	{"idx_report_recommendations_report_id", "CREATE INDEX IF NOT EXISTS idx_report_recommendations_report_id ON report_recommendations(report_id, position)"},
	{"idx_report_recommendations_category", "CREATE INDEX IF NOT EXISTS idx_report_recommendations_category ON report_recommendations(category)"},
}

// AddReportIndexes adds indexes used by report lookups
func AddReportIndexes(tx *gorm.DB) error {
	for _, idx := range reportIndexes {
		if err := tx.Exec(idx.ddl).Error; err != nil {
			return err
		}
	}
	return nil
}

// RemoveReportIndexes removes the indexes created by AddReportIndexes
func RemoveReportIndexes(tx *gorm.DB) error {
	for _, idx := range reportIndexes {
		if err := tx.Exec("DROP INDEX IF EXISTS " + idx.name).Error; err != nil {
			return err
		}
	}
	return nil
}
