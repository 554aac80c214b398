package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chynybekuuludastan/content_optimizer/internal/config"
	"github.com/chynybekuuludastan/content_optimizer/internal/repository"
	"github.com/chynybekuuludastan/content_optimizer/internal/repository/cache"
	"github.com/chynybekuuludastan/content_optimizer/internal/service/analyzer"
	"github.com/chynybekuuludastan/content_optimizer/internal/service/parser"
)

// PageFetcher loads a page by URL, optionally through a headless browser
type PageFetcher func(ctx context.Context, url string, render bool, opts parser.ParseOptions) (*parser.Page, error)

// FetchPage is the default PageFetcher: colly for static pages, chromedp when render is set
func FetchPage(ctx context.Context, url string, render bool, opts parser.ParseOptions) (*parser.Page, error) {
	if render {
		return parser.RenderPage(ctx, url, opts)
	}
	return parser.ParseWebsite(ctx, url, opts)
}

// ContentHandler handles content analysis requests
type ContentHandler struct {
	Service *analyzer.ContentAnalyzerService
	Reports repository.ReportRepository
	Cache   *cache.Repository
	Config  *config.Config
	Logger  *zap.Logger
	Fetch   PageFetcher
}

// AnalyzeURLRequest represents a request to fetch and analyze a page
type AnalyzeURLRequest struct {
	URL     string           `json:"url"`
	Render  bool             `json:"render"`
	Options analyzer.Options `json:"options"`
}

// NewContentHandler creates a new content handler. Reports and cache may be nil.
func NewContentHandler(service *analyzer.ContentAnalyzerService, reports repository.ReportRepository, reportCache *cache.Repository, cfg *config.Config, logger *zap.Logger) *ContentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentHandler{
		Service: service,
		Reports: reports,
		Cache:   reportCache,
		Config:  cfg,
		Logger:  logger,
		Fetch:   FetchPage,
	}
}

// Analyze scores supplied HTML or text content
func (h *ContentHandler) Analyze(c *fiber.Ctx) error {
	req := new(analyzer.AnalyzeRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
	}

	title := ""
	if req.Content != nil {
		title = req.Content.Meta.Title
	}
	return h.run(c, *req, title)
}

// AnalyzeURL fetches a page and scores it
func (h *ContentHandler) AnalyzeURL(c *fiber.Ctx) error {
	req := new(AnalyzeURLRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
	}

	target, err := parser.NormalizeURL(req.URL)
	if req.URL == "" || err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "A valid url is required",
		})
	}

	opts := parser.DefaultParseOptions()
	opts.Timeout = h.Config.FetchTimeout

	page, err := h.Fetch(c.UserContext(), target, req.Render, opts)
	if err != nil {
		h.Logger.Warn("Failed to fetch page", zap.String("url", target), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch page: " + err.Error(),
		})
	}

	title := ""
	if page.Content != nil {
		title = page.Content.Meta.Title
	}
	return h.run(c, analyzer.AnalyzeRequest{
		URL:     page.URL,
		HTML:    page.HTML,
		Content: page.Content,
		Options: req.Options,
	}, title)
}

// run serves a cached report or analyzes, stores and caches a new one.
// Storage and cache failures are logged and never fail the request.
func (h *ContentHandler) run(c *fiber.Ctx, req analyzer.AnalyzeRequest, title string) error {
	ctx := c.UserContext()

	key, err := cache.RequestKey(req)
	if err != nil {
		h.Logger.Warn("Failed to build cache key", zap.Error(err))
	}
	if key != "" {
		cached, err := h.Cache.GetReport(ctx, key)
		if err != nil {
			h.Logger.Warn("Failed to read report cache", zap.Error(err))
		}
		if cached != nil {
			return c.JSON(fiber.Map{
				"success": true,
				"cached":  true,
				"data":    cached,
			})
		}
	}

	analyzeCtx, cancel := context.WithTimeout(ctx, h.Config.AnalysisTimeout)
	defer cancel()

	report, err := h.Service.Analyze(analyzeCtx, req)
	if err != nil {
		return h.analysisError(c, err)
	}

	if h.Reports != nil {
		if _, err := h.Reports.Save(ctx, report, title); err != nil {
			h.Logger.Error("Failed to save report", zap.String("report_id", report.ID), zap.Error(err))
		}
	}
	if err := h.Cache.CacheReport(ctx, key, report); err != nil {
		h.Logger.Warn("Failed to cache report", zap.String("report_id", report.ID), zap.Error(err))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"cached":  false,
		"data":    report,
	})
}

func (h *ContentHandler) analysisError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var analyzerErr *analyzer.AnalyzerError
	switch {
	case errors.Is(err, analyzer.ErrEmptyInput):
		status = fiber.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = fiber.StatusGatewayTimeout
	case errors.As(err, &analyzerErr):
		h.Logger.Error("Analyzer failed", zap.String("analyzer", string(analyzerErr.Analyzer)), zap.Error(analyzerErr.Err))
	default:
		h.Logger.Error("Analysis failed", zap.Error(err))
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}

// GetReport returns a stored report by ID
func (h *ContentHandler) GetReport(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid report ID",
		})
	}

	ctx := c.UserContext()
	cached, err := h.Cache.GetReportByID(ctx, id.String())
	if err != nil {
		h.Logger.Warn("Failed to read report cache", zap.Error(err))
	}
	if cached != nil {
		return c.JSON(fiber.Map{
			"success": true,
			"data":    cached,
		})
	}

	if h.Reports == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "Report storage is not configured",
		})
	}

	record, err := h.Reports.FindReport(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "Report not found",
			})
		}
		h.Logger.Error("Failed to load report", zap.String("report_id", id.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to load report",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    json.RawMessage(record.Report),
	})
}

// DeleteReport removes a stored report and evicts it from the cache
func (h *ContentHandler) DeleteReport(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid report ID",
		})
	}
	if h.Reports == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "Report storage is not configured",
		})
	}

	ctx := c.UserContext()
	if err := h.Reports.DeleteReport(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "Report not found",
			})
		}
		h.Logger.Error("Failed to delete report", zap.String("report_id", id.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to delete report",
		})
	}

	if err := h.Cache.InvalidateReport(ctx, id.String()); err != nil {
		h.Logger.Warn("Failed to evict report from cache", zap.String("report_id", id.String()), zap.Error(err))
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}

// ListReports returns the report history of one URL
func (h *ContentHandler) ListReports(c *fiber.Ctx) error {
	url := c.Query("url")
	if url == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "The url query parameter is required",
		})
	}
	if h.Reports == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "Report storage is not configured",
		})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))

	records, total, err := h.Reports.FindByURL(c.UserContext(), url, page, pageSize)
	if err != nil {
		h.Logger.Error("Failed to list reports", zap.String("url", url), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to list reports",
		})
	}

	items := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		items = append(items, fiber.Map{
			"id":            r.ID,
			"url":           r.URL,
			"overall_score": r.OverallScore,
			"grade":         r.Grade,
			"status":        r.Status,
			"language":      r.Language,
			"word_count":    r.WordCount,
			"assessor":      r.Assessor,
			"analyzed_at":   r.AnalyzedAt.Format(time.RFC3339),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    items,
		"total":   total,
		"page":    page,
	})
}
