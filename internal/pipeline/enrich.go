package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/fanout"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/ledger"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/model"
	"github.com/johntannerworthington/icypeascontactgenerator/pkg/icypeas"
)

// DefaultBatchSize is the largest chunk the enrichment provider accepts.
const DefaultBatchSize = 50

// Chunk splits cands into consecutive slices of at most size elements.
func Chunk(cands []model.Candidate, size int) [][]model.Candidate {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var chunks [][]model.Candidate
	for start := 0; start < len(cands); start += size {
		end := min(start+size, len(cands))
		chunks = append(chunks, cands[start:end])
	}
	return chunks
}

// EnrichPhase resolves candidates in chunks of batchSize, one bulk request
// per chunk. Every candidate either comes back enriched or is audited once.
func EnrichPhase(ctx context.Context, cands []model.Candidate, client icypeas.Client, runner fanout.Runner, batchSize int, env Env) []model.EnrichedCandidate {
	chunks := Chunk(cands, batchSize)
	log := zap.L().With(zap.String("stage", string(ledger.StageEnrich)))
	log.Info("pipeline: enrichment starting",
		zap.Int("candidates", len(cands)),
		zap.Int("batches", len(chunks)),
	)
	start := time.Now()

	var enriched []model.EnrichedCandidate
	for batch := range fanout.Stream(ctx, runner, chunks,
		func(ctx context.Context, chunk []model.Candidate) ([]model.EnrichedCandidate, error) {
			return enrichChunk(ctx, chunk, client, env)
		},
		func(chunk []model.Candidate, err error) []model.EnrichedCandidate {
			for _, c := range chunk {
				env.drop(ctx, ledger.StageEnrich, c.Query, "bulk search request failed: "+err.Error())
			}
			return nil
		},
	) {
		enriched = append(enriched, batch...)
	}

	elapsed := time.Since(start)
	env.observe(ledger.StageEnrich, elapsed)
	log.Info("pipeline: enrichment complete",
		zap.Int("enriched", len(enriched)),
		zap.Duration("elapsed", elapsed),
	)
	return enriched
}

func enrichChunk(ctx context.Context, chunk []model.Candidate, client icypeas.Client, env Env) ([]model.EnrichedCandidate, error) {
	urls := make([]string, len(chunk))
	for i, c := range chunk {
		urls[i] = c.URL
	}

	env.Ledger.Add(ledger.StageEnrich, ledger.Requests, 1)
	resp, err := client.ScrapeProfiles(ctx, urls)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		for _, c := range chunk {
			env.drop(ctx, ledger.StageEnrich, c.Query, "bulk search unsuccessful")
		}
		return nil, nil
	}

	// Response position i belongs to request URL i.
	var out []model.EnrichedCandidate
	for i, c := range chunk {
		if i >= len(resp.Data) {
			env.drop(ctx, ledger.StageEnrich, c.Query, "missing from Icypeas response: "+c.URL)
			continue
		}
		res := resp.Data[i]
		if res.Found() {
			env.Ledger.Add(ledger.StageEnrich, ledger.Profiles, 1)
		}
		if !res.Found() || res.Result.FirstName == "" || res.Result.LastName == "" {
			env.drop(ctx, ledger.StageEnrich, c.Query, "profile not found in Icypeas: "+c.URL)
			continue
		}
		out = append(out, toEnriched(c, res.Result))
	}
	return out, nil
}

func toEnriched(c model.Candidate, p icypeas.Profile) model.EnrichedCandidate {
	history := make([]model.EmploymentRecord, len(p.WorksFor))
	for i, pos := range p.WorksFor {
		history[i] = model.EmploymentRecord{
			Employer: pos.Name,
			Title:    pos.JobTitle,
			EndDate:  pos.EndDate,
		}
	}
	return model.EnrichedCandidate{
		Candidate:  c,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Employment: history,
	}
}
