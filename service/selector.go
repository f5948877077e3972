package service

import (
	"sort"

	"github.com/Sammy-2432/PerformanceTestingEnhanced/model"
)

// Selector narrows the metadata table to one record through cascading
// filters: Release, then Project Name, then Enterprise Release ID. It is a
// pure view over an immutable slice of records; selection state lives with
// the caller, never here.
type Selector struct {
	records []model.MetadataRecord
}

func NewSelector(records []model.MetadataRecord) *Selector {
	return &Selector{records: records}
}

// Releases returns the sorted unique releases present in the table
func (s *Selector) Releases() []string {
	return s.uniqueValues(func(r *model.MetadataRecord) string { return r.Release }, nil)
}

// Projects returns the sorted unique project names for a release
func (s *Selector) Projects(release string) []string {
	return s.uniqueValues(
		func(r *model.MetadataRecord) string { return r.ProjectName },
		func(r *model.MetadataRecord) bool { return r.Release == release },
	)
}

// EnterpriseReleaseIDs returns the sorted unique Enterprise Release IDs for
// a release and project combination
func (s *Selector) EnterpriseReleaseIDs(release, project string) []string {
	return s.uniqueValues(
		func(r *model.MetadataRecord) string { return r.EnterpriseReleaseID },
		func(r *model.MetadataRecord) bool {
			return r.Release == release && r.ProjectName == project
		},
	)
}

// Select returns the unique record matching all three selection keys.
// Returns ErrNoMatch for zero matches and ErrAmbiguousSelection when the
// workbook holds duplicate rows for the combination.
func (s *Selector) Select(release, project, enterpriseReleaseID string) (*model.MetadataRecord, error) {
	if release == "" || project == "" || enterpriseReleaseID == "" {
		return nil, ErrInputMissing
	}

	var match *model.MetadataRecord
	for i := range s.records {
		r := &s.records[i]
		if r.Release != release || r.ProjectName != project || r.EnterpriseReleaseID != enterpriseReleaseID {
			continue
		}
		if match != nil {
			return nil, ErrAmbiguousSelection
		}
		match = r
	}

	if match == nil {
		return nil, ErrNoMatch
	}

	// Copy so callers cannot mutate the table
	record := *match
	return &record, nil
}

func (s *Selector) uniqueValues(value func(*model.MetadataRecord) string, keep func(*model.MetadataRecord) bool) []string {
	seen := make(map[string]struct{})
	var values []string
	for i := range s.records {
		r := &s.records[i]
		if keep != nil && !keep(r) {
			continue
		}
		v := value(r)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
