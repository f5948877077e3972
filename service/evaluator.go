package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/Sammy-2432/PerformanceTestingEnhanced/config"
	"github.com/Sammy-2432/PerformanceTestingEnhanced/model"
	gocache "github.com/patrickmn/go-cache"
)

// Check names. The slice order below is the canonical report order.
const (
	CheckRelease             = "release"
	CheckBusinessAppID       = "business_app_id"
	CheckEnterpriseReleaseID = "enterprise_release_id"
	CheckProjectName         = "project_name"
	CheckTaskID              = "task_id"
	CheckFooter              = "footer_project_name"
	CheckTableOfContents     = "table_of_contents"
	CheckInScopeSection      = "in_scope_section"
	CheckEmbeddedWorkbook    = "embedded_workbook"
	CheckMilestones          = "milestones"
	CheckPLTStatus           = "plt_status"
	CheckSlideCount          = "slide_count"
)

type namedCheck struct {
	name     string
	category string
	run      func(*model.MetadataRecord, *model.ExtractedDocument) model.CheckResult
}

// Evaluator applies the named compliance checks of one document kind
// against a selected metadata record. Checks are independent and
// commutative; when parallel_workers > 1 they run on a bounded worker pool
// and are re-ordered canonically before scoring, so parallel and
// sequential runs produce identical reports.
type Evaluator struct {
	cfg     *config.ComplianceConfig
	reports *gocache.Cache
}

func NewEvaluator(cfg *config.ComplianceConfig) *Evaluator {
	ttl := time.Duration(cfg.ReportCacheTTLMins) * time.Minute
	return &Evaluator{
		cfg:     cfg,
		reports: gocache.New(ttl, 2*ttl),
	}
}

// Evaluate produces the compliance report for one record and one extracted
// document. Reports are memoized by content hash for the cache TTL; the
// checks are pure, so a hit is always equivalent to a fresh run.
func (e *Evaluator) Evaluate(record *model.MetadataRecord, doc *model.ExtractedDocument) (*model.ComplianceReport, error) {
	if record == nil || doc == nil {
		return nil, ErrInputMissing
	}

	key := e.cacheKey(record, doc)
	if cached, ok := e.reports.Get(key); ok {
		return cached.(*model.ComplianceReport), nil
	}

	checks := e.checksFor(doc.Kind)
	results := e.runChecks(checks, record, doc)
	report := e.score(results)

	e.reports.SetDefault(key, report)
	return report, nil
}

func (e *Evaluator) checksFor(kind model.DocumentKind) []namedCheck {
	fieldChecks := []namedCheck{
		{CheckRelease, model.CategoryMetadata, fieldCheck(CheckRelease, func(r *model.MetadataRecord) string { return r.Release })},
		{CheckBusinessAppID, model.CategoryMetadata, fieldCheck(CheckBusinessAppID, func(r *model.MetadataRecord) string { return r.BusinessAppID })},
		{CheckEnterpriseReleaseID, model.CategoryMetadata, fieldCheck(CheckEnterpriseReleaseID, func(r *model.MetadataRecord) string { return r.EnterpriseReleaseID })},
		{CheckProjectName, model.CategoryMetadata, fieldCheck(CheckProjectName, func(r *model.MetadataRecord) string { return r.ProjectName })},
		{CheckTaskID, model.CategoryMetadata, fieldCheck(CheckTaskID, func(r *model.MetadataRecord) string { return r.TaskID })},
	}

	if kind == model.KindPptx {
		return append(fieldChecks,
			namedCheck{CheckEmbeddedWorkbook, model.CategoryAttachments, e.checkEmbeddedWorkbook},
			namedCheck{CheckMilestones, model.CategorySchedule, checkMilestones},
			namedCheck{CheckPLTStatus, model.CategorySchedule, checkPLTStatus},
			namedCheck{CheckSlideCount, model.CategoryStructure, e.checkSlideCount},
		)
	}

	return append(fieldChecks,
		namedCheck{CheckFooter, model.CategoryStructure, checkFooter},
		namedCheck{CheckTableOfContents, model.CategoryStructure, checkTableOfContents},
		namedCheck{CheckInScopeSection, model.CategoryStructure, checkInScopeSection},
		namedCheck{CheckEmbeddedWorkbook, model.CategoryAttachments, e.checkEmbeddedWorkbook},
		namedCheck{CheckMilestones, model.CategorySchedule, checkMilestones},
	)
}

func (e *Evaluator) runChecks(checks []namedCheck, record *model.MetadataRecord, doc *model.ExtractedDocument) []model.CheckResult {
	results := make([]model.CheckResult, len(checks))

	workers := e.cfg.ParallelWorkers
	if workers <= 1 {
		for i, c := range checks {
			results[i] = c.run(record, doc)
			results[i].Name = c.name
			results[i].Category = c.category
		}
		return results
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				c := checks[i]
				results[i] = c.run(record, doc)
				results[i].Name = c.name
				results[i].Category = c.category
			}
		}()
	}
	for i := range checks {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (e *Evaluator) score(results []model.CheckResult) *model.ComplianceReport {
	var passed, partial int
	for _, r := range results {
		switch r.Status {
		case model.StatusPass:
			passed++
		case model.StatusPartial:
			partial++
		}
	}

	weight := 1.0
	if e.cfg.PartialWeight != nil {
		weight = *e.cfg.PartialWeight
	}

	total := len(results)
	score := 0.0
	if total > 0 {
		credit := float64(passed) + weight*float64(partial)
		score = 100 * credit / float64(total)
	}
	// Keep boundary comparisons stable for values like 59.999999
	score = math.Round(score*100) / 100

	status := model.NonCompliant
	if score >= e.cfg.ThresholdPercent {
		status = model.Compliant
	}

	return &model.ComplianceReport{
		Results:       results,
		ScorePercent:  score,
		PassedChecks:  passed,
		PartialChecks: partial,
		TotalChecks:   total,
		OverallStatus: status,
	}
}

func (e *Evaluator) cacheKey(record *model.MetadataRecord, doc *model.ExtractedDocument) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s|%s|%d|%s|%s",
		record.Release,
		record.ProjectName,
		record.EnterpriseReleaseID,
		record.BusinessAppID,
		record.TaskID,
		record.EndDate.Unix(),
		doc.Kind,
		doc.ContentHash,
	)))
	return hex.EncodeToString(sum[:])
}

// fieldCheck passes when the record's field value appears verbatim
// (case-insensitive, whitespace-normalized) in the page 1 region
func fieldCheck(name string, value func(*model.MetadataRecord) string) func(*model.MetadataRecord, *model.ExtractedDocument) model.CheckResult {
	return func(record *model.MetadataRecord, doc *model.ExtractedDocument) model.CheckResult {
		expected := strings.TrimSpace(value(record))
		if expected == "" {
			return model.CheckResult{
				Status: model.StatusFail,
				Detail: fmt.Sprintf("%s is empty in the metadata record", name),
			}
		}
		if containsNormalized(doc.FirstPageText, expected) {
			return model.CheckResult{
				Status: model.StatusPass,
				Detail: fmt.Sprintf("%q found on page 1", expected),
			}
		}
		return model.CheckResult{
			Status: model.StatusFail,
			Detail: fmt.Sprintf("%q not found on page 1", expected),
		}
	}
}

func checkFooter(record *model.MetadataRecord, doc *model.ExtractedDocument) model.CheckResult {
	if containsNormalized(doc.FooterText, record.ProjectName) {
		return model.CheckResult{
			Status: model.StatusPass,
			Detail: "project name present in footer",
		}
	}
	return model.CheckResult{
		Status: model.StatusFail,
		Detail: fmt.Sprintf("project name %q not found in footer", record.ProjectName),
	}
}

func checkTableOfContents(_ *model.MetadataRecord, doc *model.ExtractedDocument) model.CheckResult {
	if doc.HasTOC {
		return model.CheckResult{Status: model.StatusPass, Detail: "table of contents present"}
	}
	return model.CheckResult{Status: model.StatusFail, Detail: "table of contents not found"}
}

func checkInScopeSection(_ *model.MetadataRecord, doc *model.ExtractedDocument) model.CheckResult {
	if text, ok := doc.Sections[SectionInScope]; ok && strings.TrimSpace(text) != "" {
		return model.CheckResult{Status: model.StatusPass, Detail: `section 3.3 "In Scope" present`}
	}
	return model.CheckResult{Status: model.StatusFail, Detail: `section 3.3 "In Scope" missing or empty`}
}

// checkEmbeddedWorkbook requires an embedded workbook whose Architecture
// sheet carries a Servers column. An embedded object without that sheet or
// column is a partial result; no embedded object at all is a failure.
func (e *Evaluator) checkEmbeddedWorkbook(_ *model.MetadataRecord, doc *model.ExtractedDocument) model.CheckResult {
	if len(doc.EmbeddedWorkbooks) == 0 {
		return model.CheckResult{Status: model.StatusFail, Detail: "no embedded workbook found"}
	}

	var sheetNames []string
	hasServersColumn := false
	for _, wb := range doc.EmbeddedWorkbooks {
		for _, sheet := range wb.Sheets {
			sheetNames = append(sheetNames, sheet.Name)
			if !strings.Contains(strings.ToLower(sheet.Name), "architecture") {
				continue
			}
			for _, col := range sheet.Columns {
				if strings.EqualFold(strings.TrimSpace(col), "Servers") {
					hasServersColumn = true
				}
			}
		}
	}

	var missing []string
	for _, required := range e.cfg.RequiredWorksheets {
		found := false
		for _, name := range sheetNames {
			if strings.Contains(strings.ToLower(name), strings.ToLower(required)) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, required)
		}
	}

	if hasServersColumn {
		detail := "Architecture sheet with Servers column present"
		if len(missing) > 0 {
			detail += "; missing worksheets: " + strings.Join(missing, ", ")
		}
		return model.CheckResult{Status: model.StatusPass, Detail: detail}
	}

	return model.CheckResult{
		Status: model.StatusPartial,
		Detail: "embedded workbook found but Architecture sheet with Servers column is missing",
	}
}

// checkMilestones passes when the milestones section holds at least one
// date on or after the record's end date
func checkMilestones(record *model.MetadataRecord, doc *model.ExtractedDocument) model.CheckResult {
	text, ok := doc.Sections[SectionMilestones]
	if !ok || strings.TrimSpace(text) == "" {
		return model.CheckResult{Status: model.StatusFail, Detail: "milestones section not found"}
	}

	if len(doc.MilestoneDates) == 0 {
		return model.CheckResult{
			Status: model.StatusPartial,
			Detail: "milestones section present but holds no dates",
		}
	}

	if record.EndDate.IsZero() {
		return model.CheckResult{
			Status: model.StatusPass,
			Detail: "milestones section present; no end date on record to compare against",
		}
	}

	for _, d := range doc.MilestoneDates {
		if !d.Before(record.EndDate) {
			return model.CheckResult{
				Status: model.StatusPass,
				Detail: fmt.Sprintf("milestone date %s covers end date %s",
					d.Format("2006-01-02"), record.EndDate.Format("2006-01-02")),
			}
		}
	}

	return model.CheckResult{
		Status: model.StatusPartial,
		Detail: fmt.Sprintf("no milestone date on or after end date %s", record.EndDate.Format("2006-01-02")),
	}
}

func checkPLTStatus(_ *model.MetadataRecord, doc *model.ExtractedDocument) model.CheckResult {
	if doc.PLTStatus == "" {
		return model.CheckResult{Status: model.StatusFail, Detail: "PLT status not found on any slide"}
	}

	status := strings.ToLower(doc.PLTStatus)
	for _, positive := range []string{"complete", "passed", "successful", "green", "ok"} {
		if strings.Contains(status, positive) {
			return model.CheckResult{
				Status: model.StatusPass,
				Detail: fmt.Sprintf("PLT status %q", doc.PLTStatus),
			}
		}
	}
	return model.CheckResult{
		Status: model.StatusPartial,
		Detail: fmt.Sprintf("PLT status %q is not a completed state", doc.PLTStatus),
	}
}

func (e *Evaluator) checkSlideCount(_ *model.MetadataRecord, doc *model.ExtractedDocument) model.CheckResult {
	if doc.SlideCount >= e.cfg.MinSlideCount {
		return model.CheckResult{
			Status: model.StatusPass,
			Detail: fmt.Sprintf("%d slides", doc.SlideCount),
		}
	}
	return model.CheckResult{
		Status: model.StatusFail,
		Detail: fmt.Sprintf("%d slides, expected at least %d", doc.SlideCount, e.cfg.MinSlideCount),
	}
}

// containsNormalized reports whether needle appears in haystack after
// lowercasing and whitespace normalization of both
func containsNormalized(haystack, needle string) bool {
	needle = strings.ToLower(normalizeText(needle))
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(normalizeText(haystack)), needle)
}
