// Package query builds the search-query universe for a roster of companies.
package query

import (
	"fmt"
	"strings"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/model"
)

// SiteFilter restricts search results to public profile pages.
const SiteFilter = "site:linkedin.com/in"

// Generate returns two queries per (company, title) pair: one phrased with the
// company name and one with its root domain. Both carry the same metadata.
// Blank titles are skipped, a company without a domain gets only the name
// variant, and repeated triples collapse to a single query.
func Generate(companies []model.Company, titles []string) []model.Query {
	seen := make(map[model.QueryKey]struct{}, len(companies)*len(titles)*2)
	queries := make([]model.Query, 0, len(companies)*len(titles)*2)

	add := func(c model.Company, title string, v model.Variant, subject string) {
		key := model.NewQueryKey(c, title, v)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		queries = append(queries, model.Query{
			Key:     key,
			Seq:     len(queries),
			Text:    Phrase(subject, title),
			Company: c.Name,
			Domain:  c.Domain,
			Title:   title,
			Variant: v,
		})
	}

	for _, c := range companies {
		for _, title := range titles {
			title = strings.TrimSpace(title)
			if title == "" {
				continue
			}
			add(c, title, model.VariantName, c.Name)
			if strings.TrimSpace(c.Domain) != "" {
				add(c, title, model.VariantDomain, c.Domain)
			}
		}
	}
	return queries
}

// Phrase formats the literal search text for subject and title.
func Phrase(subject, title string) string {
	return fmt.Sprintf("%s %s %s", strings.TrimSpace(subject), title, SiteFilter)
}

// ParseTitles splits a comma-separated titles cell, trimming blanks.
func ParseTitles(s string) []string {
	var titles []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			titles = append(titles, t)
		}
	}
	return titles
}
