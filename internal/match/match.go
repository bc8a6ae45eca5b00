// Package match decides whether a profile's current employer and job title
// correspond to the company and titles that were searched for.
package match

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/resilience"
)

// Verdict is one match decision and what it cost, in oracle tokens.
type Verdict struct {
	Matched   bool
	CostUnits int64
}

// Matcher is the semantic-match oracle used by validation.
type Matcher interface {
	MatchOrganization(ctx context.Context, target, candidate string) (Verdict, error)
	MatchTitle(ctx context.Context, targets []string, candidate string) (Verdict, error)
}

// Completion is a single model answer.
type Completion struct {
	Text   string
	Tokens int64
}

// Completer sends one system + user prompt to a language model.
type Completer interface {
	Complete(ctx context.Context, system, user string) (Completion, error)
}

const systemPrompt = `You check lead data for a sales research pipeline.
Answer with a single JSON object and nothing else: {"match": true} or {"match": false}.`

const organizationPrompt = `Target company: %q
Current employer on the profile: %q

Do both names refer to the same organization?
Treat as the same: legal suffixes (Inc, LLC, Ltd, GmbH), punctuation and casing, abbreviations,
a root domain versus the company name (acme.com vs Acme), and a brand versus its operating company.
Treat as different: unrelated companies that merely share a word, and former or partner companies.

Examples of matches:
"L3Harris Technologies" vs "L3Harris"
"Google LLC" vs "Google"
"The Coca-Cola Company" vs "Coca-Cola"
"International Business Machines" vs "IBM"
"General Electric" vs "GE"
"The Boeing Company" vs "Boeing"
"JPMorgan Chase & Co." vs "JPMorgan Chase"
"Amazon Web Services" vs "Amazon"
"Unilever N.V." vs "Unilever"
"Apple Inc." vs "Apple"
"Microsoft Corporation" vs "Microsoft"
"Amazon.com" vs "Amazon"`

const titlePrompt = `Target job titles: %s
Current job title on the profile: %q

Does the current title hold the same job function or a closely related role in the same field?
Judge the function, not literal keywords. A senior role can match a lead or director role.
Design, development and product are often used for the same function.
If the title combines roles (President / Mechanical Engineer), a match on any part is a match.

Roles that match each other:
Executive leadership: "CEO", "Founder", "President", "Managing Member", "Chief Executive Officer"
Sales and marketing: "VP of Sales", "Sales Director", "Head of Marketing", "Marketing Lead"
Product, design and development: "Product Manager", "Product Owner", "Product Strategist", "Product Development Engineer", "Product Designer", "Innovation Manager", "Design Engineer"
Packaging: "Packaging Engineer", "Structural Packaging Engineer", "Packaging Specialist", "Packaging Design Engineer"
Software: "Software Engineer", "Developer", "Programmer", "Full Stack Developer", "Backend Engineer"`

// LLMMatcher asks a language model for each decision.
type LLMMatcher struct {
	completer Completer
	breaker   *resilience.Breaker
}

// NewLLMMatcher creates a matcher. breaker may be nil.
func NewLLMMatcher(c Completer, breaker *resilience.Breaker) *LLMMatcher {
	return &LLMMatcher{completer: c, breaker: breaker}
}

// MatchOrganization implements Matcher.
func (m *LLMMatcher) MatchOrganization(ctx context.Context, target, candidate string) (Verdict, error) {
	return m.ask(ctx, fmt.Sprintf(organizationPrompt, target, candidate))
}

// MatchTitle implements Matcher.
func (m *LLMMatcher) MatchTitle(ctx context.Context, targets []string, candidate string) (Verdict, error) {
	quoted := make([]string, len(targets))
	for i, t := range targets {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return m.ask(ctx, fmt.Sprintf(titlePrompt, "["+strings.Join(quoted, ", ")+"]", candidate))
}

func (m *LLMMatcher) ask(ctx context.Context, prompt string) (Verdict, error) {
	call := func(ctx context.Context) (Completion, error) {
		return m.completer.Complete(ctx, systemPrompt, prompt)
	}

	var (
		c   Completion
		err error
	)
	if m.breaker != nil {
		c, err = resilience.Do(ctx, m.breaker, call)
	} else {
		c, err = call(ctx)
	}
	if err != nil {
		return Verdict{}, err
	}

	matched, err := ParseVerdict(c.Text)
	if err != nil {
		return Verdict{CostUnits: c.Tokens}, err
	}
	return Verdict{Matched: matched, CostUnits: c.Tokens}, nil
}

// ParseVerdict extracts the boolean "match" field from a model answer, which
// may be wrapped in a markdown code fence or surrounded by prose.
func ParseVerdict(text string) (bool, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return false, eris.Errorf("match: no JSON object in answer %q", text)
	}

	var v struct {
		Match *bool `json:"match"`
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), &v); err != nil {
		return false, eris.Wrapf(err, "match: parse answer %q", text)
	}
	if v.Match == nil {
		return false, eris.Errorf("match: answer %q has no match field", text)
	}
	return *v.Match, nil
}
