package model

import (
	"time"
)

// Evaluation represents one compliance evaluation of an uploaded document
type Evaluation struct {
	ID           string            `json:"id"`
	Filename     string            `json:"filename"`
	Tenant       string            `json:"tenant"`
	DocumentKind DocumentKind      `json:"document_kind"`
	Record       *MetadataRecord   `json:"record,omitempty"`
	Report       *ComplianceReport `json:"report,omitempty"`
	Status       string            `json:"status"` // pending, completed, failed
	ErrorMsg     string            `json:"error_msg,omitempty"`
	ObjectName   string            `json:"object_name,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Evaluation status constants
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)
