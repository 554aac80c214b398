package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/chynybekuuludastan/content_optimizer/internal/models"
	"github.com/chynybekuuludastan/content_optimizer/internal/service/analyzer"
)

// ReportRepository defines operations for ContentReport model
type ReportRepository interface {
	Repository
	Save(ctx context.Context, report *analyzer.ContentAnalysisReport, title string) (*models.ContentReport, error)
	FindReport(ctx context.Context, id uuid.UUID) (*models.ContentReport, error)
	FindByURL(ctx context.Context, url string, page, pageSize int) ([]*models.ContentReport, int64, error)
	DeleteReport(ctx context.Context, id uuid.UUID) error
}

// reportRepository implements ReportRepository
type reportRepository struct {
	*BaseRepository
	websites WebsiteRepository
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB, websites WebsiteRepository) ReportRepository {
	return &reportRepository{
		BaseRepository: NewBaseRepository(db),
		websites:       websites,
	}
}

// BuildReportRecord converts an analysis report into its database rows
func BuildReportRecord(report *analyzer.ContentAnalysisReport) (*models.ContentReport, error) {
	id, err := uuid.Parse(report.ID)
	if err != nil {
		return nil, fmt.Errorf("report id %q: %w", report.ID, err)
	}

	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	record := &models.ContentReport{
		ID:           id,
		URL:          report.URL,
		OverallScore: report.OverallScore.Overall,
		Grade:        report.OverallScore.Grade,
		Status:       report.OverallScore.Status,
		Language:     report.ContentMetrics.Language,
		WordCount:    report.ContentMetrics.WordCount,
		DurationMs:   report.AnalysisDurationMs,
		Report:       datatypes.JSON(data),
		AnalyzedAt:   report.AnalyzedAt,
	}
	if report.DuplicateContentAnalysis != nil {
		record.Fingerprint = report.DuplicateContentAnalysis.Fingerprints.SHA256
	}
	if report.ContentQuality != nil {
		record.Assessor = report.ContentQuality.Assessor
	}

	grades := map[string]string{}
	if report.ContentQuality != nil {
		grades[string(analyzer.ContentQualityComponent)] = report.ContentQuality.Grade
	}
	if report.KeywordAnalysis != nil {
		grades[string(analyzer.KeywordDensityComponent)] = report.KeywordAnalysis.Grade
	}
	if report.ReadabilityAnalysis != nil {
		grades[string(analyzer.ReadabilityComponent)] = report.ReadabilityAnalysis.Grade
	}
	if report.HeadingAnalysis != nil {
		grades[string(analyzer.HeadingStructureComponent)] = report.HeadingAnalysis.Grade
	}
	if report.ImageAnalysis != nil {
		grades[string(analyzer.ImageOptimizationComponent)] = report.ImageAnalysis.Grade
	}
	if report.LinkAnalysis != nil {
		grades[string(analyzer.LinkAnalysisComponent)] = report.LinkAnalysis.Grade
	}
	if report.DuplicateContentAnalysis != nil {
		grades[string(analyzer.DuplicateContentComponent)] = report.DuplicateContentAnalysis.Grade
	}

	for _, name := range analyzer.Components {
		score, ok := report.OverallScore.Components[string(name)]
		if !ok {
			continue
		}
		record.Scores = append(record.Scores, models.ComponentScore{
			ReportID:  id,
			Component: string(name),
			Score:     score,
			Weight:    report.OverallScore.Weights[string(name)],
			Grade:     grades[string(name)],
		})
	}

	for i, rec := range report.Recommendations {
		record.Recommendations = append(record.Recommendations, models.ReportRecommendation{
			ReportID: id,
			Position: i,
			Type:     string(rec.Type),
			Category: rec.Category,
			Impact:   string(rec.Impact),
			Message:  rec.Message,
			Fix:      rec.Fix,
		})
	}
	return record, nil
}

// Save stores a report with its component scores and recommendations.
// Reports with a URL are attached to their website.
func (r *reportRepository) Save(ctx context.Context, report *analyzer.ContentAnalysisReport, title string) (*models.ContentReport, error) {
	record, err := BuildReportRecord(report)
	if err != nil {
		return nil, err
	}

	if report.URL != "" {
		website, err := r.websites.FindOrCreate(ctx, report.URL, title)
		if err != nil {
			return nil, fmt.Errorf("website record: %w", err)
		}
		record.WebsiteID = &website.ID
	}

	err = r.Transaction(ctx, func(tx *gorm.DB) error {
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	return record, nil
}

// FindReport loads a report with its scores and recommendations in list order
func (r *reportRepository) FindReport(ctx context.Context, id uuid.UUID) (*models.ContentReport, error) {
	var report models.ContentReport
	err := r.DB.WithContext(ctx).
		Preload("Scores").
		Preload("Recommendations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&report, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// FindByURL lists the reports of one URL, newest first, without the JSON body
func (r *reportRepository) FindByURL(ctx context.Context, url string, page, pageSize int) ([]*models.ContentReport, int64, error) {
	var reports []*models.ContentReport
	var count int64

	if err := r.DB.WithContext(ctx).Model(&models.ContentReport{}).Where("url = ?", url).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	_, pageSize, offset := pagination(page, pageSize)
	err := r.DB.WithContext(ctx).
		Omit("report").
		Where("url = ?", url).
		Order("analyzed_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&reports).Error
	if err != nil {
		return nil, 0, err
	}

	return reports, count, nil
}

// DeleteReport removes a report; its scores and recommendations cascade.
// A missing report returns gorm.ErrRecordNotFound.
func (r *reportRepository) DeleteReport(ctx context.Context, id uuid.UUID) error {
	result := r.DB.WithContext(ctx).Delete(&models.ContentReport{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
