package model

import "strings"

// Sentinel end dates the enrichment provider uses for a role that is still held.
const (
	CurrentEndDate    = "0001-01-01T00:00:00.000Z"
	CurrentEndDateAlt = "0000-01-01T00:00:00.000Z"
)

// Candidate is one unique profile URL after deduplication. Query, Company and
// Domain come from the first search that produced the URL; Titles accumulates
// the target title of every search that produced it, repeats included.
type Candidate struct {
	URL     string   `json:"url"`
	Query   Query    `json:"query"`
	Company string   `json:"company"`
	Domain  string   `json:"domain"`
	Titles  []string `json:"titles"`
}

// EmploymentRecord is one entry of a profile's work history.
type EmploymentRecord struct {
	Employer string `json:"employer"`
	Title    string `json:"title"`
	EndDate  string `json:"end_date"`
}

// IsCurrent reports whether the record's end date is a "still employed" sentinel.
func (r EmploymentRecord) IsCurrent() bool {
	return r.EndDate == CurrentEndDate || r.EndDate == CurrentEndDateAlt
}

// EnrichedCandidate is a Candidate with the identity and work history returned
// by the enrichment provider.
type EnrichedCandidate struct {
	Candidate
	FirstName  string             `json:"first_name"`
	LastName   string             `json:"last_name"`
	Employment []EmploymentRecord `json:"employment"`
}

// CurrentJob returns the first record, in history order, that is still held.
func (c EnrichedCandidate) CurrentJob() (EmploymentRecord, bool) {
	for _, rec := range c.Employment {
		if rec.IsCurrent() {
			return rec, true
		}
	}
	return EmploymentRecord{}, false
}

// ValidationResult is a candidate that passed (or failed) identity validation.
// Email stays empty until contact discovery runs.
type ValidationResult struct {
	Query           Query  `json:"query"`
	URL             string `json:"url"`
	Domain          string `json:"domain"`
	Valid           bool   `json:"valid"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	CurrentEmployer string `json:"current_employer"`
	CurrentTitle    string `json:"current_title"`
	Email           string `json:"email"`
	MatchCost       int64  `json:"match_cost"`
}

// FullName joins first and last name.
func (v ValidationResult) FullName() string {
	return strings.TrimSpace(v.FirstName + " " + v.LastName)
}

// AuditEntry records why a unit of work was dropped or altered.
type AuditEntry struct {
	Key    QueryKey `json:"key"`
	Query  string   `json:"query"`
	Reason string   `json:"reason"`
}

// NewAuditEntry builds an entry attributed to q.
func NewAuditEntry(q Query, reason string) AuditEntry {
	return AuditEntry{Key: q.Key, Query: q.Text, Reason: reason}
}
