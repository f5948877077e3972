package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sammy-2432/PerformanceTestingEnhanced/pkg/logger"
	"github.com/Sammy-2432/PerformanceTestingEnhanced/service"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type MetadataHandler struct {
	metadata *service.MetadataService
	minio    *service.MinioService
}

func NewMetadataHandler(metadataSvc *service.MetadataService, minioSvc *service.MinioService) *MetadataHandler {
	return &MetadataHandler{
		metadata: metadataSvc,
		minio:    minioSvc,
	}
}

// Status reports whether a workbook is loaded and current
func (h *MetadataHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.metadata.Status())
}

// Releases returns the release dropdown values
func (h *MetadataHandler) Releases(c *gin.Context) {
	releases, err := h.metadata.Releases()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"releases": releases})
}

// Projects returns the project dropdown values for a release
func (h *MetadataHandler) Projects(c *gin.Context) {
	release := c.Query("release")
	if release == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "release query parameter required"})
		return
	}

	projects, err := h.metadata.Projects(release)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// EnterpriseReleaseIDs returns the Enterprise Release ID dropdown values
// for a release and project combination
func (h *MetadataHandler) EnterpriseReleaseIDs(c *gin.Context) {
	release := c.Query("release")
	project := c.Query("project")
	if release == "" || project == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "release and project query parameters required"})
		return
	}

	ids, err := h.metadata.EnterpriseReleaseIDs(release, project)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enterprise_release_ids": ids})
}

// UploadWorkbook replaces the active metadata table with an uploaded
// workbook and archives a snapshot
func (h *MetadataHandler) UploadWorkbook(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only XLSX workbooks are allowed"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	rows, err := h.metadata.LoadFromReader(bytes.NewReader(data), header.Filename)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Failed to load workbook: " + err.Error()})
		return
	}

	// Archive the snapshot; a storage hiccup must not undo the reload
	objectName := fmt.Sprintf("workbooks/%s_%s", time.Now().Format("20060102_150405"), header.Filename)
	if h.minio != nil {
		if err := h.minio.UploadFile(c.Request.Context(), objectName, bytes.NewReader(data), int64(len(data)), xlsxContentType); err != nil {
			logger.Warn(c.Request.Context(), "failed to archive workbook snapshot",
				"object_name", objectName, "error", err)
			objectName = ""
		}
	}

	logger.Info(c.Request.Context(), "metadata workbook replaced",
		"filename", header.Filename, "rows", rows)

	c.JSON(http.StatusOK, gin.H{
		"filename":    header.Filename,
		"rows":        rows,
		"object_name": objectName,
	})
}
