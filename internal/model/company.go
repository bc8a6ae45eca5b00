// Package model holds the value types passed between pipeline stages.
package model

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Company is a target organization read from the input roster.
type Company struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// Variant identifies how a query phrases the target company.
type Variant string

const (
	VariantName   Variant = "name"   // "<company name> <title> ..."
	VariantDomain Variant = "domain" // "<root domain> <title> ..."
)

// queryNamespace seeds name-based query keys.
var queryNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("query.contactgen"))

// QueryKey is the stable identity of a Query. Two queries that happen to share
// literal text still get distinct keys when their company, title, or variant differ.
type QueryKey uuid.UUID

// NewQueryKey derives the key for a (company, title, variant) triple. Inputs are
// NFC-normalized and case-folded so cosmetic differences collapse to one key.
func NewQueryKey(company Company, title string, variant Variant) QueryKey {
	parts := []string{
		foldKey(company.Name),
		foldKey(company.Domain),
		foldKey(title),
		string(variant),
	}
	return QueryKey(uuid.NewSHA1(queryNamespace, []byte(strings.Join(parts, "\x1f"))))
}

func (k QueryKey) String() string {
	return uuid.UUID(k).String()
}

// MarshalText encodes the key in canonical UUID form.
func (k QueryKey) MarshalText() ([]byte, error) {
	return uuid.UUID(k).MarshalText()
}

// IsZero reports whether the key was never assigned.
func (k QueryKey) IsZero() bool {
	return uuid.UUID(k) == uuid.Nil
}

func foldKey(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// Query is one search request in the query universe. Seq is the position in
// generation order and is used to make downstream folds deterministic.
type Query struct {
	Key     QueryKey `json:"key"`
	Seq     int      `json:"seq"`
	Text    string   `json:"text"`
	Company string   `json:"company"`
	Domain  string   `json:"domain"`
	Title   string   `json:"title"`
	Variant Variant  `json:"variant"`
}

// SearchResult is the outcome of one search request. An empty URL is a valid
// terminal outcome meaning no profile was found.
type SearchResult struct {
	Query Query  `json:"query"`
	URL   string `json:"url"`
}

// Found reports whether the search produced a profile URL.
func (r SearchResult) Found() bool {
	return r.URL != ""
}
