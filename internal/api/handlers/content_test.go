package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chynybekuuludastan/content_optimizer/internal/config"
	"github.com/chynybekuuludastan/content_optimizer/internal/models"
	"github.com/chynybekuuludastan/content_optimizer/internal/repository"
	"github.com/chynybekuuludastan/content_optimizer/internal/repository/cache"
	"github.com/chynybekuuludastan/content_optimizer/internal/service/analyzer"
	"github.com/chynybekuuludastan/content_optimizer/internal/service/parser"
)

const testPage = `<html><head><title>Cold brew guide</title></head><body>
<h1>Cold brew coffee</h1>
<p>Cold brew coffee is made by steeping coarse ground beans in cold water for many hours. The slow extraction gives a smooth cup.</p>
<h2>Beans</h2>
<p>Medium roasts work well. Grind them right before brewing and use filtered water.</p>
</body></html>`

// memoryReports keeps saved reports in a map
type memoryReports struct {
	repository.Repository
	saved   map[uuid.UUID]*models.ContentReport
	titles  []string
	saveErr error
}

func newMemoryReports() *memoryReports {
	return &memoryReports{saved: map[uuid.UUID]*models.ContentReport{}}
}

func (m *memoryReports) Save(ctx context.Context, report *analyzer.ContentAnalysisReport, title string) (*models.ContentReport, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	record, err := repository.BuildReportRecord(report)
	if err != nil {
		return nil, err
	}
	m.saved[record.ID] = record
	m.titles = append(m.titles, title)
	return record, nil
}

func (m *memoryReports) FindReport(ctx context.Context, id uuid.UUID) (*models.ContentReport, error) {
	if r, ok := m.saved[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryReports) FindByURL(ctx context.Context, url string, page, pageSize int) ([]*models.ContentReport, int64, error) {
	var out []*models.ContentReport
	for _, r := range m.saved {
		if r.URL == url {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memoryReports) DeleteReport(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.saved[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.saved, id)
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Cached  bool            `json:"cached"`
	Error   string          `json:"error"`
	Total   int64           `json:"total"`
	Data    json.RawMessage `json:"data"`
}

func newTestHandler(t *testing.T, reports repository.ReportRepository) (*fiber.App, *ContentHandler) {
	t.Helper()
	settings := analyzer.DefaultSettings()
	manager := analyzer.NewAnalyzerManager()
	if err := manager.RegisterAllAnalyzers(analyzer.NewAnalyzerFactory(settings, nil, nil)); err != nil {
		t.Fatalf("RegisterAllAnalyzers() error = %v", err)
	}
	service := analyzer.NewContentAnalyzerService(manager, settings, nil, nil)

	cfg := &config.Config{AnalysisTimeout: 10 * time.Second, FetchTimeout: time.Second}
	h := NewContentHandler(service, reports, cache.NewRepository(nil, 0), cfg, nil)

	app := fiber.New()
	app.Post("/analyze", h.Analyze)
	app.Post("/analyze-url", h.AnalyzeURL)
	app.Get("/reports", h.ListReports)
	app.Get("/reports/:id", h.GetReport)
	app.Delete("/reports/:id", h.DeleteReport)
	return app, h
}

func do(t *testing.T, app *fiber.App, method, target string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = strings.NewReader(string(data))
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, env
}

func TestAnalyzeStoresReport(t *testing.T) {
	reports := newMemoryReports()
	app, _ := newTestHandler(t, reports)

	status, env := do(t, app, "POST", "/analyze", map[string]interface{}{
		"url":  "https://example.com/cold-brew",
		"html": testPage,
	})
	if status != fiber.StatusOK || !env.Success {
		t.Fatalf("status = %d, body = %+v", status, env)
	}

	var report analyzer.ContentAnalysisReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.OverallScore.Overall < 0 || report.OverallScore.Overall > 100 {
		t.Errorf("overall = %v", report.OverallScore.Overall)
	}
	if len(reports.saved) != 1 {
		t.Fatalf("saved %d reports, want 1", len(reports.saved))
	}

	status, env = do(t, app, "GET", "/reports/"+report.ID, nil)
	if status != fiber.StatusOK {
		t.Fatalf("GET report status = %d", status)
	}
	var stored analyzer.ContentAnalysisReport
	if err := json.Unmarshal(env.Data, &stored); err != nil {
		t.Fatalf("decode stored report: %v", err)
	}
	if stored.ID != report.ID || stored.OverallScore.Overall != report.OverallScore.Overall {
		t.Errorf("stored report differs: %s/%v", stored.ID, stored.OverallScore.Overall)
	}

	status, env = do(t, app, "GET", "/reports?url=https://example.com/cold-brew", nil)
	if status != fiber.StatusOK || env.Total != 1 {
		t.Errorf("list status = %d, total = %d", status, env.Total)
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	app, _ := newTestHandler(t, nil)

	status, env := do(t, app, "POST", "/analyze", map[string]string{"url": "https://example.com"})
	if status != fiber.StatusBadRequest || env.Success {
		t.Errorf("status = %d, success = %v", status, env.Success)
	}
}

func TestAnalyzeSaveFailureStillReturnsReport(t *testing.T) {
	reports := newMemoryReports()
	reports.saveErr = errors.New("database is down")
	app, _ := newTestHandler(t, reports)

	status, env := do(t, app, "POST", "/analyze", map[string]string{"html": testPage})
	if status != fiber.StatusOK || !env.Success {
		t.Errorf("status = %d, body = %+v", status, env)
	}
}

func TestAnalyzeURL(t *testing.T) {
	reports := newMemoryReports()
	app, h := newTestHandler(t, reports)

	var gotURL string
	var gotRender bool
	h.Fetch = func(ctx context.Context, url string, render bool, opts parser.ParseOptions) (*parser.Page, error) {
		gotURL, gotRender = url, render
		content, err := parser.ParseHTML(testPage, url)
		if err != nil {
			return nil, err
		}
		return &parser.Page{URL: url, HTML: testPage, StatusCode: 200, Content: content}, nil
	}

	status, env := do(t, app, "POST", "/analyze-url", map[string]interface{}{
		"url":    "example.com/cold-brew",
		"render": true,
	})
	if status != fiber.StatusOK || !env.Success {
		t.Fatalf("status = %d, body = %+v", status, env)
	}
	if gotURL != "https://example.com/cold-brew" || !gotRender {
		t.Errorf("fetched %q render=%v", gotURL, gotRender)
	}
	if len(reports.titles) != 1 || reports.titles[0] != "Cold brew guide" {
		t.Errorf("saved titles = %v", reports.titles)
	}
}

func TestAnalyzeURLErrors(t *testing.T) {
	app, h := newTestHandler(t, nil)
	h.Fetch = func(ctx context.Context, url string, render bool, opts parser.ParseOptions) (*parser.Page, error) {
		return nil, errors.New("connection refused")
	}

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"missing url", map[string]string{}, fiber.StatusBadRequest},
		{"fetch failure", map[string]string{"url": "https://example.com"}, fiber.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := do(t, app, "POST", "/analyze-url", tt.body)
			if status != tt.want || env.Success {
				t.Errorf("status = %d, want %d", status, tt.want)
			}
		})
	}
}

func TestReportRoutes(t *testing.T) {
	tests := []struct {
		name    string
		reports repository.ReportRepository
		target  string
		want    int
	}{
		{"invalid id", newMemoryReports(), "/reports/not-a-uuid", fiber.StatusBadRequest},
		{"unknown id", newMemoryReports(), "/reports/" + uuid.NewString(), fiber.StatusNotFound},
		{"no storage", nil, "/reports/" + uuid.NewString(), fiber.StatusServiceUnavailable},
		{"list without url", newMemoryReports(), "/reports", fiber.StatusBadRequest},
		{"list without storage", nil, "/reports?url=https://example.com", fiber.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestHandler(t, tt.reports)
			status, _ := do(t, app, "GET", tt.target, nil)
			if status != tt.want {
				t.Errorf("status = %d, want %d", status, tt.want)
			}
		})
	}
}

func TestDeleteReport(t *testing.T) {
	reports := newMemoryReports()
	app, _ := newTestHandler(t, reports)

	status, env := do(t, app, "POST", "/analyze", map[string]string{"url": "https://example.com/cold-brew", "html": testPage})
	if status != fiber.StatusOK {
		t.Fatalf("analyze status = %d, body = %+v", status, env)
	}
	var report analyzer.ContentAnalysisReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"delete stored", "DELETE", "/reports/" + report.ID, fiber.StatusOK},
		{"gone after delete", "GET", "/reports/" + report.ID, fiber.StatusNotFound},
		{"delete again", "DELETE", "/reports/" + report.ID, fiber.StatusNotFound},
		{"invalid id", "DELETE", "/reports/not-a-uuid", fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, _ := do(t, app, tt.method, tt.target, nil); status != tt.want {
				t.Errorf("%s %s status = %d, want %d", tt.method, tt.target, status, tt.want)
			}
		})
	}

	t.Run("no storage", func(t *testing.T) {
		app, _ := newTestHandler(t, nil)
		if status, _ := do(t, app, "DELETE", "/reports/"+uuid.NewString(), nil); status != fiber.StatusServiceUnavailable {
			t.Errorf("status = %d, want %d", status, fiber.StatusServiceUnavailable)
		}
	})
}
