package service

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Sammy-2432/PerformanceTestingEnhanced/config"
	"github.com/Sammy-2432/PerformanceTestingEnhanced/model"
	gocache "github.com/patrickmn/go-cache"
	"github.com/xuri/excelize/v2"
)

// columnAliases maps each record field to the header names it may appear
// under in the shared workbook. Matching is case-insensitive substring,
// exact header first.
var columnAliases = map[string][]string{
	"release":               {"Release", "Release Version", "Version"},
	"business_app_id":       {"Business Application ID", "Business App ID", "App ID", "Application ID"},
	"enterprise_release_id": {"Enterprise Release ID", "Release ID", "Enterprise ID"},
	"project_name":          {"Project Name", "Project", "Name"},
	"task_id":               {"Task ID", "Task", "ID"},
	"end_date":              {"End Date", "Completion Date", "Target Date", "Due Date"},
}

// Date layouts seen in the workbook's End Date column
var endDateLayouts = []string{
	"2006-01-02",
	"01-02-06",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// MetadataStatus summarizes the currently loaded workbook
type MetadataStatus struct {
	Loaded   bool      `json:"loaded"`
	Rows     int       `json:"rows"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
	Current  bool      `json:"current"`
}

// MetadataService loads the shared project workbook and serves the record
// table. The table is replaced atomically on reload; readers always see a
// consistent snapshot.
type MetadataService struct {
	cfg *config.MetadataConfig

	mu       sync.RWMutex
	records  []model.MetadataRecord
	source   string
	loadedAt time.Time
	modTime  time.Time

	// Memoizes derived dropdown value lists; flushed on reload
	lists *gocache.Cache
}

func NewMetadataService(cfg *config.MetadataConfig) *MetadataService {
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	return &MetadataService{
		cfg:   cfg,
		lists: gocache.New(ttl, 2*ttl),
	}
}

// LoadFromFile reads the workbook at path and replaces the active table
func (s *MetadataService) LoadFromFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat workbook: %w", err)
	}

	n, err := s.load(f, path)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.modTime = info.ModTime()
	s.mu.Unlock()

	return n, nil
}

// LoadFromReader reads an uploaded workbook and replaces the active table
func (s *MetadataService) LoadFromReader(r io.Reader, source string) (int, error) {
	n, err := s.load(r, source)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.modTime = time.Now()
	s.mu.Unlock()

	return n, nil
}

func (s *MetadataService) load(r io.Reader, source string) (int, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return 0, fmt.Errorf("failed to parse workbook: %w", err)
	}
	defer wb.Close()

	sheet := s.cfg.SheetName
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return 0, fmt.Errorf("sheet %q has no data rows", sheet)
	}

	cols := mapColumns(rows[0])
	if cols["release"] < 0 || cols["project_name"] < 0 {
		return 0, fmt.Errorf("sheet %q is missing Release or Project Name columns", sheet)
	}

	records := make([]model.MetadataRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := model.MetadataRecord{
			Release:             cell(row, cols["release"]),
			ProjectName:         cell(row, cols["project_name"]),
			EnterpriseReleaseID: cell(row, cols["enterprise_release_id"]),
			BusinessAppID:       cell(row, cols["business_app_id"]),
			TaskID:              cell(row, cols["task_id"]),
		}
		// Rows without the two primary selectors, or with a malformed
		// release identifier, are noise
		if rec.Release == "" || rec.ProjectName == "" {
			continue
		}
		if !model.ReleasePattern.MatchString(rec.Release) {
			continue
		}
		if raw := cell(row, cols["end_date"]); raw != "" {
			if d, ok := parseEndDate(raw); ok {
				rec.EndDate = d
			}
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return 0, fmt.Errorf("sheet %q yielded no usable records", sheet)
	}

	s.mu.Lock()
	s.records = records
	s.source = source
	s.loadedAt = time.Now()
	s.mu.Unlock()
	s.lists.Flush()

	return len(records), nil
}

// Selector returns a selector over the current table snapshot
func (s *MetadataService) Selector() (*Selector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.records) == 0 {
		return nil, ErrMetadataNotLoaded
	}
	return NewSelector(s.records), nil
}

// Releases returns the cached release dropdown values
func (s *MetadataService) Releases() ([]string, error) {
	return s.cachedList("releases", func(sel *Selector) []string {
		return sel.Releases()
	})
}

// Projects returns the cached project dropdown values for a release
func (s *MetadataService) Projects(release string) ([]string, error) {
	return s.cachedList("projects:"+release, func(sel *Selector) []string {
		return sel.Projects(release)
	})
}

// EnterpriseReleaseIDs returns the cached Enterprise Release ID dropdown
// values for a release and project
func (s *MetadataService) EnterpriseReleaseIDs(release, project string) ([]string, error) {
	return s.cachedList("erids:"+release+"|"+project, func(sel *Selector) []string {
		return sel.EnterpriseReleaseIDs(release, project)
	})
}

func (s *MetadataService) cachedList(key string, build func(*Selector) []string) ([]string, error) {
	if v, ok := s.lists.Get(key); ok {
		return v.([]string), nil
	}
	sel, err := s.Selector()
	if err != nil {
		return nil, err
	}
	values := build(sel)
	s.lists.SetDefault(key, values)
	return values, nil
}

// Status reports whether a workbook is loaded and whether it is current
// with respect to the configured update weekday
func (s *MetadataService) Status() MetadataStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return MetadataStatus{
		Loaded:   len(s.records) > 0,
		Rows:     len(s.records),
		Source:   s.source,
		LoadedAt: s.loadedAt,
		Current:  len(s.records) > 0 && s.isCurrent(s.modTime, time.Now()),
	}
}

// isCurrent reports whether a workbook modified at modTime is on or after
// the most recent occurrence of the configured update weekday
func (s *MetadataService) isCurrent(modTime, now time.Time) bool {
	daysSince := (int(now.Weekday()) - s.cfg.UpdateWeekday + 7) % 7
	lastUpdateDay := now.AddDate(0, 0, -daysSince)
	cutoff := time.Date(lastUpdateDay.Year(), lastUpdateDay.Month(), lastUpdateDay.Day(), 0, 0, 0, 0, now.Location())
	return !modTime.Before(cutoff)
}

func mapColumns(header []string) map[string]int {
	cols := make(map[string]int, len(columnAliases))
	for key := range columnAliases {
		cols[key] = -1
	}

	// Exact match first
	for key, aliases := range columnAliases {
		for i, h := range header {
			h = strings.TrimSpace(h)
			for _, alias := range aliases {
				if strings.EqualFold(h, alias) {
					cols[key] = i
				}
			}
			if cols[key] >= 0 {
				break
			}
		}
	}

	// Fall back to case-insensitive substring
	for key, aliases := range columnAliases {
		if cols[key] >= 0 {
			continue
		}
		for i, h := range header {
			lower := strings.ToLower(strings.TrimSpace(h))
			for _, alias := range aliases {
				if strings.Contains(lower, strings.ToLower(alias)) {
					cols[key] = i
					break
				}
			}
			if cols[key] >= 0 {
				break
			}
		}
	}

	return cols
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseEndDate(raw string) (time.Time, bool) {
	for _, layout := range endDateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
