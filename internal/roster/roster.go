// Package roster reads the input company list and writes the joined results.
package roster

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/model"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/query"
)

// Input column names.
const (
	ColCompany = "company"
	ColDomain  = "Root Domain"
	ColTitles  = "job titles"
)

// ResultColumns are appended to every input row on output.
var ResultColumns = []string{
	"Full Name",
	"First Name",
	"Job title",
	"LinkedIn URL",
	"Company",
	"search_query",
	"email",
}

// Roster is a parsed input file. Header and Rows keep every original column so
// the output can carry them through unchanged.
type Roster struct {
	Header    []string
	Rows      [][]string
	Companies []model.Company
	Titles    []string

	domainCol int
}

// Read parses the input CSV. The titles list comes from the first data row's
// titles cell; company and domain come from every row.
func Read(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "roster: open csv")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "roster: read csv")
	}
	if len(records) < 2 {
		return nil, eris.New("roster: csv has no data rows")
	}

	header := records[0]
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	for _, col := range []string{ColCompany, ColDomain, ColTitles} {
		if _, ok := colIdx[col]; !ok {
			return nil, eris.Errorf("roster: missing required column %q", col)
		}
	}

	r := &Roster{
		Header:    header,
		Rows:      records[1:],
		Titles:    query.ParseTitles(getCol(records[1], colIdx, ColTitles)),
		domainCol: colIdx[ColDomain],
	}
	for _, row := range r.Rows {
		r.Companies = append(r.Companies, model.Company{
			Name:   getCol(row, colIdx, ColCompany),
			Domain: getCol(row, colIdx, ColDomain),
		})
	}
	return r, nil
}

// Limit keeps only the first n companies. n <= 0 keeps everything.
func (r *Roster) Limit(n int) {
	if n <= 0 || n >= len(r.Rows) {
		return
	}
	r.Rows = r.Rows[:n]
	r.Companies = r.Companies[:n]
}

// Write left-joins results onto the roster rows by root domain and writes the
// combined table. A row with k matching results is written k times; a row with
// none is written once with blank result columns.
func Write(path string, r *Roster, results []model.ValidationResult) error {
	byDomain := make(map[string][]model.ValidationResult)
	for _, res := range results {
		if !res.Valid {
			continue
		}
		d := strings.TrimSpace(res.Domain)
		byDomain[d] = append(byDomain[d], res)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "roster: create file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append(append([]string(nil), r.Header...), ResultColumns...)); err != nil {
		return eris.Wrap(err, "roster: write header")
	}

	for _, row := range r.Rows {
		domain := ""
		if r.domainCol < len(row) {
			domain = strings.TrimSpace(row[r.domainCol])
		}
		matches := byDomain[domain]
		if len(matches) == 0 {
			if err := w.Write(joinRow(row, len(r.Header), nil)); err != nil {
				return eris.Wrap(err, "roster: write row")
			}
			continue
		}
		for i := range matches {
			if err := w.Write(joinRow(row, len(r.Header), &matches[i])); err != nil {
				return eris.Wrap(err, "roster: write row")
			}
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "roster: flush")
}

func joinRow(row []string, width int, res *model.ValidationResult) []string {
	out := make([]string, width, width+len(ResultColumns))
	copy(out, row)
	if res == nil {
		return append(out, make([]string, len(ResultColumns))...)
	}
	return append(out,
		res.FullName(),
		res.FirstName,
		res.CurrentTitle,
		res.URL,
		res.CurrentEmployer,
		res.Query.Text,
		res.Email,
	)
}

func getCol(row []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
