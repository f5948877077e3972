package handler

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Sammy-2432/PerformanceTestingEnhanced/config"
	"github.com/Sammy-2432/PerformanceTestingEnhanced/service"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

func testComplianceConfig() *config.ComplianceConfig {
	return &config.ComplianceConfig{
		ThresholdPercent:   60,
		RequiredWorksheets: config.DefaultRequiredWorksheets,
		ParallelWorkers:    1,
		ReportCacheTTLMins: 5,
		MinSlideCount:      5,
	}
}

// loadTestMetadata fills a metadata service with one well-known record
func loadTestMetadata(t *testing.T, svc *service.MetadataService, rows [][]string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("Failed to build cell name: %v", err)
			}
			if err := f.SetCellValue("Sheet1", cell, value); err != nil {
				t.Fatalf("Failed to set cell value: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("Failed to serialize workbook: %v", err)
	}
	if _, err := svc.LoadFromReader(buf, "test.xlsx"); err != nil {
		t.Fatalf("Failed to load metadata: %v", err)
	}
}

func metadataRows() [][]string {
	return [][]string{
		{"Release", "Project Name", "Enterprise Release ID", "Business Application ID", "Task ID", "End Date"},
		{"2025.M08", "Database Optimization", "REL0001234", "APP007", "TSK123456", "2025-08-15"},
	}
}

// testDocx builds a minimal wordprocessing package whose body carries the
// given text
func testDocx(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("Failed to create document part: %v", err)
	}
	xml := `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + body + `</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(xml)); err != nil {
		t.Fatalf("Failed to write document part: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// multipartUpload builds a multipart body with the selection fields and an
// optional file part
func multipartUpload(t *testing.T, fields map[string]string, filename string, file []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write field %s: %v", k, err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("Failed to create file part: %v", err)
		}
		if _, err := fw.Write(file); err != nil {
			t.Fatalf("Failed to write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func newEvaluationRouter(handler *EvaluationHandler, tenant string) *gin.Engine {
	router := gin.New()
	withTenant := func(fn gin.HandlerFunc) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set("username", "testuser")
			c.Set("tenant", tenant)
			fn(c)
		}
	}
	router.POST("/evaluations", withTenant(handler.Create))
	router.GET("/evaluations", withTenant(handler.List))
	router.GET("/evaluations/:id", withTenant(handler.Get))
	router.DELETE("/evaluations/:id", withTenant(handler.Delete))
	return router
}

func newEvaluationHandler(t *testing.T) *EvaluationHandler {
	t.Helper()

	metadataSvc := service.NewMetadataService(&config.MetadataConfig{
		SheetName:       "Sheet1",
		UpdateWeekday:   3,
		CacheTTLMinutes: 5,
	})
	loadTestMetadata(t, metadataSvc, metadataRows())

	evaluator := service.NewEvaluator(testComplianceConfig())
	return NewEvaluationHandler(metadataSvc, evaluator, nil)
}

func validFields() map[string]string {
	return map[string]string{
		"release":               "2025.M08",
		"project":               "Database Optimization",
		"enterprise_release_id": "REL0001234",
	}
}

func TestEvaluationCreate(t *testing.T) {
	handler := newEvaluationHandler(t)
	router := newEvaluationRouter(handler, "tenant-create")

	docx := testDocx(t, "Test Plan 2025.M08 APP007 REL0001234 Database Optimization TSK123456")
	body, contentType := multipartUpload(t, validFields(), "plan.docx", docx)

	req := httptest.NewRequest("POST", "/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Report struct {
			ScorePercent  float64 `json:"score_percent"`
			TotalChecks   int     `json:"total_checks"`
			OverallStatus string  `json:"overall_status"`
		} `json:"report"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.ID == "" {
		t.Error("Expected evaluation ID in response")
	}
	if resp.Status != "completed" {
		t.Errorf("Expected status completed, got %s", resp.Status)
	}
	if resp.Report.TotalChecks != 10 {
		t.Errorf("Expected 10 checks for a docx, got %d", resp.Report.TotalChecks)
	}
	// All five metadata fields are on page 1 but structure checks fail
	if resp.Report.ScorePercent != 50 {
		t.Errorf("Expected score 50, got %v", resp.Report.ScorePercent)
	}
	if resp.Report.OverallStatus != "non_compliant" {
		t.Errorf("Expected non_compliant, got %s", resp.Report.OverallStatus)
	}
}

func TestEvaluationCreateMissingFields(t *testing.T) {
	handler := newEvaluationHandler(t)
	router := newEvaluationRouter(handler, "tenant-missing")

	body, contentType := multipartUpload(t, map[string]string{"release": "2025.M08"}, "plan.docx", testDocx(t, "text"))

	req := httptest.NewRequest("POST", "/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestEvaluationCreateNoFile(t *testing.T) {
	handler := newEvaluationHandler(t)
	router := newEvaluationRouter(handler, "tenant-nofile")

	body, contentType := multipartUpload(t, validFields(), "", nil)

	req := httptest.NewRequest("POST", "/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestEvaluationCreateBadExtension(t *testing.T) {
	handler := newEvaluationHandler(t)
	router := newEvaluationRouter(handler, "tenant-ext")

	body, contentType := multipartUpload(t, validFields(), "plan.pdf", []byte("pdf data"))

	req := httptest.NewRequest("POST", "/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestEvaluationCreateNoMatch(t *testing.T) {
	handler := newEvaluationHandler(t)
	router := newEvaluationRouter(handler, "tenant-nomatch")

	fields := validFields()
	fields["enterprise_release_id"] = "REL9999999"
	body, contentType := multipartUpload(t, fields, "plan.docx", testDocx(t, "text"))

	req := httptest.NewRequest("POST", "/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestEvaluationCreateAmbiguousSelection(t *testing.T) {
	metadataSvc := service.NewMetadataService(&config.MetadataConfig{
		SheetName:       "Sheet1",
		CacheTTLMinutes: 5,
	})
	rows := metadataRows()
	rows = append(rows, rows[1])
	loadTestMetadata(t, metadataSvc, rows)

	handler := NewEvaluationHandler(metadataSvc, service.NewEvaluator(testComplianceConfig()), nil)
	router := newEvaluationRouter(handler, "tenant-ambiguous")

	body, contentType := multipartUpload(t, validFields(), "plan.docx", testDocx(t, "text"))

	req := httptest.NewRequest("POST", "/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestEvaluationCreateMetadataNotLoaded(t *testing.T) {
	metadataSvc := service.NewMetadataService(&config.MetadataConfig{
		SheetName:       "Sheet1",
		CacheTTLMinutes: 5,
	})
	handler := NewEvaluationHandler(metadataSvc, service.NewEvaluator(testComplianceConfig()), nil)
	router := newEvaluationRouter(handler, "tenant-noload")

	body, contentType := multipartUpload(t, validFields(), "plan.docx", testDocx(t, "text"))

	req := httptest.NewRequest("POST", "/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestEvaluationCreateCorruptDocument(t *testing.T) {
	handler := newEvaluationHandler(t)
	router := newEvaluationRouter(handler, "tenant-corrupt")

	body, contentType := multipartUpload(t, validFields(), "plan.docx", []byte("not a zip archive"))

	req := httptest.NewRequest("POST", "/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", w.Code)
	}
}

func TestEvaluationListAndGet(t *testing.T) {
	handler := newEvaluationHandler(t)
	router := newEvaluationRouter(handler, "tenant-list")

	docx := testDocx(t, "Test Plan 2025.M08 APP007")
	body, contentType := multipartUpload(t, validFields(), "plan.docx", docx)

	req := httptest.NewRequest("POST", "/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Create failed with status %d", w.Code)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to parse create response: %v", err)
	}

	// List
	req = httptest.NewRequest("GET", "/evaluations", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("List failed with status %d", w.Code)
	}

	var list struct {
		Evaluations []map[string]interface{} `json:"evaluations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("Failed to parse list response: %v", err)
	}
	if len(list.Evaluations) != 1 {
		t.Fatalf("Expected 1 evaluation, got %d", len(list.Evaluations))
	}
	if _, hasResults := list.Evaluations[0]["report"]; hasResults {
		t.Error("List view must not carry the full report")
	}

	// Get
	req = httptest.NewRequest("GET", "/evaluations/"+created.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Get failed with status %d", w.Code)
	}

	var detail struct {
		Evaluation        map[string]interface{}              `json:"evaluation"`
		ResultsByCategory map[string][]map[string]interface{} `json:"results_by_category"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("Failed to parse get response: %v", err)
	}
	if len(detail.ResultsByCategory) == 0 {
		t.Error("Expected results grouped by category")
	}
}

func TestEvaluationGetWrongTenant(t *testing.T) {
	handler := newEvaluationHandler(t)
	owner := newEvaluationRouter(handler, "tenant-owner")
	intruder := newEvaluationRouter(handler, "tenant-intruder")

	docx := testDocx(t, "Test Plan")
	body, contentType := multipartUpload(t, validFields(), "plan.docx", docx)

	req := httptest.NewRequest("POST", "/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	owner.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Create failed with status %d", w.Code)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to parse create response: %v", err)
	}

	req = httptest.NewRequest("GET", "/evaluations/"+created.ID, nil)
	w = httptest.NewRecorder()
	intruder.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for foreign tenant, got %d", w.Code)
	}
}

func TestEvaluationDelete(t *testing.T) {
	handler := newEvaluationHandler(t)
	router := newEvaluationRouter(handler, "tenant-delete")

	docx := testDocx(t, "Test Plan")
	body, contentType := multipartUpload(t, validFields(), "plan.docx", docx)

	req := httptest.NewRequest("POST", "/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Create failed with status %d", w.Code)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to parse create response: %v", err)
	}

	req = httptest.NewRequest("DELETE", "/evaluations/"+created.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Delete failed with status %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/evaluations/"+created.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", w.Code)
	}

	// Deleting again is a 404
	req = httptest.NewRequest("DELETE", "/evaluations/"+created.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing evaluation, got %d", w.Code)
	}
}
