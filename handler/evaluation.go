package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sammy-2432/PerformanceTestingEnhanced/middleware"
	"github.com/Sammy-2432/PerformanceTestingEnhanced/model"
	"github.com/Sammy-2432/PerformanceTestingEnhanced/pkg/logger"
	"github.com/Sammy-2432/PerformanceTestingEnhanced/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

type EvaluationHandler struct {
	metadata  *service.MetadataService
	evaluator *service.Evaluator
	minio     *service.MinioService
	store     *service.EvaluationStore
}

func NewEvaluationHandler(metadataSvc *service.MetadataService, evaluator *service.Evaluator, minioSvc *service.MinioService) *EvaluationHandler {
	return &EvaluationHandler{
		metadata:  metadataSvc,
		evaluator: evaluator,
		minio:     minioSvc,
		store:     service.GetEvaluationStore(),
	}
}

// Create runs a compliance evaluation for an uploaded document against the
// selected metadata record. The evaluation is synchronous; the response
// carries the full report.
func (h *EvaluationHandler) Create(c *gin.Context) {
	tenant := middleware.GetTenant(c)

	release := c.PostForm("release")
	project := c.PostForm("project")
	enterpriseReleaseID := c.PostForm("enterprise_release_id")
	if release == "" || project == "" || enterpriseReleaseID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "release, project and enterprise_release_id are required"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	var kind model.DocumentKind
	var contentType string
	switch ext {
	case ".docx":
		kind = model.KindDocx
		contentType = docxContentType
	case ".pptx":
		kind = model.KindPptx
		contentType = pptxContentType
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only DOCX and PPTX files are allowed"})
		return
	}

	selector, err := h.metadata.Selector()
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	record, err := selector.Select(release, project, enterpriseReleaseID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	var doc *model.ExtractedDocument
	if kind == model.KindDocx {
		doc, err = service.AnalyzeDocx(data)
	} else {
		doc, err = service.AnalyzePptx(data)
	}
	if err != nil {
		logger.Warn(c.Request.Context(), "document extraction failed",
			"filename", header.Filename, "error", err)
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	report, err := h.evaluator.Evaluate(record, doc)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	evaluationID := uuid.New().String()
	objectName := fmt.Sprintf("%s/%s/%s", tenant, evaluationID, header.Filename)

	// Archive the document; a storage hiccup must not lose the report
	if h.minio != nil {
		if err := h.minio.UploadFile(c.Request.Context(), objectName, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
			logger.Warn(c.Request.Context(), "failed to archive document",
				"object_name", objectName, "error", err)
			objectName = ""
		}
	}

	eval := &model.Evaluation{
		ID:           evaluationID,
		Filename:     header.Filename,
		Tenant:       tenant,
		DocumentKind: kind,
		Record:       record,
		Report:       report,
		Status:       model.StatusCompleted,
		ObjectName:   objectName,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	h.store.Save(eval)

	logger.Info(c.Request.Context(), "evaluation completed",
		"evaluation_id", evaluationID,
		"filename", header.Filename,
		"score_percent", report.ScorePercent,
		"overall_status", report.OverallStatus,
	)

	c.JSON(http.StatusOK, eval)
}

// List returns all evaluations for the current tenant, newest first
func (h *EvaluationHandler) List(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	evaluations := h.store.GetByTenant(tenant)

	// Return without full reports for list view
	result := make([]gin.H, len(evaluations))
	for i, eval := range evaluations {
		item := gin.H{
			"id":            eval.ID,
			"filename":      eval.Filename,
			"document_kind": eval.DocumentKind,
			"status":        eval.Status,
			"created_at":    eval.CreatedAt.Format(time.RFC3339),
			"updated_at":    eval.UpdatedAt.Format(time.RFC3339),
		}
		if eval.Report != nil {
			item["score_percent"] = eval.Report.ScorePercent
			item["overall_status"] = eval.Report.OverallStatus
		}
		result[i] = item
	}

	c.JSON(http.StatusOK, gin.H{"evaluations": result})
}

// Get returns a single evaluation with its full report, grouped by category
func (h *EvaluationHandler) Get(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")

	eval := h.store.Get(id)
	if eval == nil || eval.Tenant != tenant {
		c.JSON(http.StatusNotFound, gin.H{"error": "Evaluation not found"})
		return
	}

	resp := gin.H{"evaluation": eval}
	if eval.Report != nil {
		resp["results_by_category"] = eval.Report.ResultsByCategory()
	}
	if eval.ObjectName != "" && h.minio != nil {
		if url, err := h.minio.GetPresignedURL(c.Request.Context(), eval.ObjectName); err == nil {
			resp["document_url"] = url
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Delete removes an evaluation and its archived document
func (h *EvaluationHandler) Delete(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")

	eval := h.store.Get(id)
	if eval == nil || eval.Tenant != tenant {
		c.JSON(http.StatusNotFound, gin.H{"error": "Evaluation not found"})
		return
	}

	if eval.ObjectName != "" && h.minio != nil {
		if err := h.minio.DeleteFile(c.Request.Context(), eval.ObjectName); err != nil {
			logger.Warn(c.Request.Context(), "failed to delete archived document",
				"object_name", eval.ObjectName, "error", err)
		}
	}
	h.store.Delete(id)

	c.JSON(http.StatusOK, gin.H{"message": "Evaluation deleted"})
}

// statusForError maps the service error taxonomy to HTTP statuses
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrInputMissing):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoMatch):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAmbiguousSelection):
		return http.StatusConflict
	case errors.Is(err, service.ErrMetadataNotLoaded):
		return http.StatusConflict
	case errors.Is(err, service.ErrExtraction):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
