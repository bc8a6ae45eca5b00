package pipeline

import (
	"context"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/fanout"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/ledger"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/model"
	"github.com/johntannerworthington/icypeascontactgenerator/pkg/serper"
)

// profilePattern matches public person-profile URLs.
var profilePattern = regexp.MustCompile(`linkedin\.com/in/`)

// SearchPhase issues one search per query and keeps the top link when it is a
// profile URL. Every query yields exactly one SearchResult, in completion
// order; unmatched and failed queries yield an empty URL and one audit entry.
func SearchPhase(ctx context.Context, queries []model.Query, client serper.Client, runner fanout.Runner, env Env) []model.SearchResult {
	log := zap.L().With(zap.String("stage", string(ledger.StageSearch)))
	log.Info("pipeline: search starting", zap.Int("queries", len(queries)))
	start := time.Now()

	results := fanout.Collect(fanout.Stream(ctx, runner, queries,
		func(ctx context.Context, q model.Query) (model.SearchResult, error) {
			env.Ledger.Add(ledger.StageSearch, ledger.Requests, 1)
			resp, err := client.Search(ctx, q.Text)
			if err != nil {
				return model.SearchResult{}, err
			}
			env.Ledger.Add(ledger.StageSearch, ledger.Credits, 1)

			link := resp.FirstLink()
			switch {
			case link == "":
				env.drop(ctx, ledger.StageSearch, q, "empty result from Serper")
				return model.SearchResult{Query: q}, nil
			case !profilePattern.MatchString(link):
				env.drop(ctx, ledger.StageSearch, q, "no valid LinkedIn URL found. Serper link: "+link)
				return model.SearchResult{Query: q}, nil
			}
			env.Ledger.Add(ledger.StageSearch, ledger.URLsFound, 1)
			return model.SearchResult{Query: q, URL: link}, nil
		},
		func(q model.Query, err error) model.SearchResult {
			env.drop(ctx, ledger.StageSearch, q, "search request failed: "+err.Error())
			return model.SearchResult{Query: q}
		},
	))

	elapsed := time.Since(start)
	env.observe(ledger.StageSearch, elapsed)
	found := 0
	for _, r := range results {
		if r.Found() {
			found++
		}
	}
	log.Info("pipeline: search complete",
		zap.Int("results", len(results)),
		zap.Int("urls_found", found),
		zap.Duration("elapsed", elapsed),
		zap.Float64("qps", qps(len(queries), elapsed)),
	)
	return results
}

func qps(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}
