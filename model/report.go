package model

// CheckStatus is the outcome of a single compliance check
type CheckStatus string

const (
	StatusPass    CheckStatus = "pass"
	StatusFail    CheckStatus = "fail"
	StatusPartial CheckStatus = "partial"
)

// OverallStatus labels the whole report
type OverallStatus string

const (
	Compliant    OverallStatus = "compliant"
	NonCompliant OverallStatus = "non_compliant"
)

// Check categories used for grouped rendering
const (
	CategoryMetadata    = "metadata"
	CategoryStructure   = "structure"
	CategoryAttachments = "attachments"
	CategorySchedule    = "schedule"
)

// CheckResult is the outcome of one named compliance rule. Never mutated
// after creation.
type CheckResult struct {
	Name     string      `json:"name"`
	Category string      `json:"category"`
	Status   CheckStatus `json:"status"`
	Detail   string      `json:"detail,omitempty"`
}

// ComplianceReport aggregates all check results for one evaluation.
// Results are ordered by category, then by check name within a category.
type ComplianceReport struct {
	Results       []CheckResult `json:"results"`
	ScorePercent  float64       `json:"score_percent"`
	PassedChecks  int           `json:"passed_checks"`
	PartialChecks int           `json:"partial_checks"`
	TotalChecks   int           `json:"total_checks"`
	OverallStatus OverallStatus `json:"overall_status"`
}

// ResultsByCategory groups results preserving the report order within
// each category.
func (r *ComplianceReport) ResultsByCategory() map[string][]CheckResult {
	grouped := make(map[string][]CheckResult)
	for _, res := range r.Results {
		grouped[res.Category] = append(grouped[res.Category], res)
	}
	return grouped
}
