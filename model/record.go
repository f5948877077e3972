package model

import (
	"regexp"
	"time"
)

// ReleasePattern matches release identifiers like 2025.M08
var ReleasePattern = regexp.MustCompile(`^\d{4}\.M\d{2}$`)

// MetadataRecord is one row of the shared project workbook. Records are
// immutable once loaded; a row is uniquely addressed by the combination of
// Release, ProjectName and EnterpriseReleaseID.
type MetadataRecord struct {
	Release             string    `json:"release"`
	ProjectName         string    `json:"project_name"`
	EnterpriseReleaseID string    `json:"enterprise_release_id"`
	BusinessAppID       string    `json:"business_app_id"`
	TaskID              string    `json:"task_id"`
	EndDate             time.Time `json:"end_date"`
}
