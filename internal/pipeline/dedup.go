package pipeline

import (
	"context"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/ledger"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/model"
)

// Dedup folds search results into one Candidate per profile URL. Results with
// an empty URL are skipped without an audit entry; they were audited by the
// search phase.
func Dedup(ctx context.Context, results []model.SearchResult, env Env) []model.Candidate {
	seeds := make([]model.Candidate, 0, len(results))
	for _, r := range results {
		if !r.Found() {
			continue
		}
		seeds = append(seeds, model.Candidate{
			URL:     r.URL,
			Query:   r.Query,
			Company: r.Query.Company,
			Domain:  r.Query.Domain,
			Titles:  []string{r.Query.Title},
		})
	}
	return Merge(ctx, seeds, env)
}

// Merge folds candidates by URL in a single pass. The first candidate for a
// URL keeps its query, company, and domain; each later one appends its titles
// and is audited as a duplicate. Merge of its own output returns it unchanged.
func Merge(ctx context.Context, cands []model.Candidate, env Env) []model.Candidate {
	index := make(map[string]int, len(cands))
	out := make([]model.Candidate, 0, len(cands))

	for _, c := range cands {
		if i, ok := index[c.URL]; ok {
			out[i].Titles = append(out[i].Titles, c.Titles...)
			env.drop(ctx, ledger.StageDedup, c.Query, "duplicate URL found: "+c.URL)
			continue
		}
		index[c.URL] = len(out)
		c.Titles = append([]string(nil), c.Titles...)
		out = append(out, c)
	}
	return out
}
