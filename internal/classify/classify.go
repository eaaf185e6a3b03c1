package classify

import (
	"regexp"
	"strings"

	"github.com/anmolkh/internradar/internal/model"
)

// internshipRegex matches titles that name an internship or co-op role.
// Word boundaries keep "internal" and "international" from matching.
var internshipRegex = regexp.MustCompile(`(?i)\b(?:intern|interns|internship|internships|co[- ]?op|coops?)\b`)

// DefaultExclusions reject titles that carry an intern-adjacent token but
// describe a non-internship role.
var DefaultExclusions = []string{"senior", "staff", "principal", "manager", "director"}

// Ensure InternshipFilter implements model.Classifier.
var _ model.Classifier = (*InternshipFilter)(nil)

// InternshipFilter admits U.S.-based internship postings: the title must
// match the internship heuristic without hitting an exclusion keyword, the
// location must resolve to the U.S., and all required canonical fields must
// be present. Rejection is silent.
type InternshipFilter struct {
	exclusions []string
}

// NewInternshipFilter returns a filter using the given exclusion keywords.
// A nil slice means DefaultExclusions; pass an empty non-nil slice to
// disable exclusions.
func NewInternshipFilter(exclusions []string) *InternshipFilter {
	if exclusions == nil {
		exclusions = DefaultExclusions
	}
	return &InternshipFilter{exclusions: exclusions}
}

// Match reports whether the job should be admitted.
func (f *InternshipFilter) Match(job model.Job) bool {
	if job.Source == "" || job.ExternalID == "" || job.Title == "" || job.Company == "" || job.URL == "" {
		return false
	}

	if !internshipRegex.MatchString(job.Title) {
		return false
	}

	titleLower := strings.ToLower(job.Title)
	for _, kw := range f.exclusions {
		if strings.Contains(titleLower, kw) {
			return false
		}
	}

	return IsUS(job.Location)
}
