package model

import "time"

// DocumentKind identifies the uploaded document type
type DocumentKind string

const (
	KindDocx DocumentKind = "docx"
	KindPptx DocumentKind = "pptx"
)

// WorksheetInfo describes one sheet of an embedded workbook
type WorksheetInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns,omitempty"`
}

// EmbeddedWorkbook is a spreadsheet embedded inside a document
type EmbeddedWorkbook struct {
	Name   string          `json:"name"`
	Sheets []WorksheetInfo `json:"sheets"`
}

// ExtractedDocument is the read-only result of analyzing an uploaded
// document. Built once per upload, never mutated afterward.
type ExtractedDocument struct {
	Kind              DocumentKind       `json:"kind"`
	FullText          string             `json:"-"`
	FirstPageText     string             `json:"-"`
	FooterText        string             `json:"-"`
	HasTOC            bool               `json:"has_toc"`
	Sections          map[string]string  `json:"-"`
	EmbeddedWorkbooks []EmbeddedWorkbook `json:"embedded_workbooks,omitempty"`
	MilestoneDates    []time.Time        `json:"milestone_dates,omitempty"`
	SlideCount        int                `json:"slide_count,omitempty"`
	PLTStatus         string             `json:"plt_status,omitempty"`
	ContentHash       string             `json:"content_hash"`
}
