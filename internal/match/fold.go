package match

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes are dropped from company names before comparison.
var legalSuffixes = map[string]bool{
	"inc": true, "llc": true, "ltd": true, "limited": true, "corp": true,
	"corporation": true, "co": true, "company": true, "gmbh": true, "plc": true,
	"sa": true, "ag": true, "bv": true, "lp": true, "llp": true,
}

// FoldMatcher is a local Matcher that compares normalized tokens. It costs
// nothing and is used when no language model is configured.
type FoldMatcher struct{}

// MatchOrganization implements Matcher. Names match when one's tokens,
// minus legal suffixes and any domain TLD, are a prefix of the other's.
func (FoldMatcher) MatchOrganization(_ context.Context, target, candidate string) (Verdict, error) {
	a := companyTokens(target)
	b := companyTokens(candidate)
	if len(a) == 0 || len(b) == 0 {
		return Verdict{}, nil
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	for i := range a {
		if a[i] != b[i] {
			return Verdict{}, nil
		}
	}
	return Verdict{Matched: true}, nil
}

// MatchTitle implements Matcher. A title matches when every token of some
// target title appears in the candidate title.
func (FoldMatcher) MatchTitle(_ context.Context, targets []string, candidate string) (Verdict, error) {
	have := make(map[string]bool)
	for _, tok := range tokens(candidate) {
		have[tok] = true
	}
	for _, t := range targets {
		want := tokens(t)
		if len(want) == 0 {
			continue
		}
		all := true
		for _, tok := range want {
			if !have[tok] {
				all = false
				break
			}
		}
		if all {
			return Verdict{Matched: true}, nil
		}
	}
	return Verdict{}, nil
}

func tokens(s string) []string {
	s = cases.Fold().String(norm.NFKC.String(s))
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func companyTokens(s string) []string {
	s = strings.TrimSpace(s)
	// "acme.com" -> "acme"
	if !strings.Contains(s, " ") {
		if i := strings.LastIndex(s, "."); i > 0 {
			s = s[:i]
		}
	}
	var out []string
	for _, tok := range tokens(s) {
		if !legalSuffixes[tok] {
			out = append(out, tok)
		}
	}
	return out
}
