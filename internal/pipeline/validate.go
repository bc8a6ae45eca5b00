package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/fanout"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/ledger"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/match"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/model"
)

// ValidatePhase runs the identity rule chain for every candidate on runner and
// returns only the valid results. Each rejected candidate is audited once.
func ValidatePhase(ctx context.Context, cands []model.EnrichedCandidate, matcher match.Matcher, runner fanout.Runner, env Env) []model.ValidationResult {
	log := zap.L().With(zap.String("stage", string(ledger.StageValidate)))
	log.Info("pipeline: validation starting", zap.Int("candidates", len(cands)))
	start := time.Now()

	var valid []model.ValidationResult
	for res := range fanout.Stream(ctx, runner, cands,
		func(ctx context.Context, c model.EnrichedCandidate) (model.ValidationResult, error) {
			return Validate(ctx, c, matcher, env), nil
		},
		func(c model.EnrichedCandidate, err error) model.ValidationResult {
			env.drop(ctx, ledger.StageValidate, c.Query, "validation failed: "+err.Error())
			return model.ValidationResult{Query: c.Query, URL: c.URL}
		},
	) {
		if res.Valid {
			valid = append(valid, res)
		}
	}

	elapsed := time.Since(start)
	env.observe(ledger.StageValidate, elapsed)
	log.Info("pipeline: validation complete",
		zap.Int("valid", len(valid)),
		zap.Int("rejected", len(cands)-len(valid)),
		zap.Duration("elapsed", elapsed),
	)
	return valid
}

// Validate applies the rule chain to one candidate. The chain stops at the
// first failing rule: employment history present, a current job, employer
// match, then title match. Match cost is reported only for a valid result.
func Validate(ctx context.Context, c model.EnrichedCandidate, matcher match.Matcher, env Env) model.ValidationResult {
	res := model.ValidationResult{
		Query:     c.Query,
		URL:       c.URL,
		Domain:    c.Domain,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}
	reject := func(reason string) model.ValidationResult {
		env.drop(ctx, ledger.StageValidate, c.Query, reason)
		return res
	}

	if len(c.Employment) == 0 {
		return reject("employment history is empty")
	}
	job, ok := c.CurrentJob()
	if !ok {
		return reject("no current job found")
	}
	res.CurrentEmployer = job.Employer
	res.CurrentTitle = job.Title

	org, err := matcher.MatchOrganization(ctx, c.Company, job.Employer)
	if err != nil {
		return reject("organization match failed: " + err.Error())
	}
	res.MatchCost += org.CostUnits
	if !org.Matched {
		return reject(fmt.Sprintf("current company does not match target company: %s : %s", job.Employer, c.Company))
	}

	title, err := matcher.MatchTitle(ctx, c.Titles, job.Title)
	if err != nil {
		return reject("title match failed: " + err.Error())
	}
	res.MatchCost += title.CostUnits
	if !title.Matched {
		return reject(fmt.Sprintf("current job title does not match target titles: %s : %s", job.Title, strings.Join(c.Titles, ", ")))
	}

	res.Valid = true
	env.Ledger.Add(ledger.StageValidate, ledger.MatchTokens, res.MatchCost)
	env.Ledger.Add(ledger.StageValidate, ledger.Matches, 1)
	return res
}
