package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/audit"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/config"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/fanout"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/ledger"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/match"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/model"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/query"
	"github.com/johntannerworthington/icypeascontactgenerator/pkg/findymail"
	"github.com/johntannerworthington/icypeascontactgenerator/pkg/icypeas"
	"github.com/johntannerworthington/icypeascontactgenerator/pkg/serper"
)

// Pipeline runs query generation through contact discovery for one roster.
type Pipeline struct {
	cfg       *config.Config
	serper    serper.Client
	icypeas   icypeas.Client
	findymail findymail.Client
	matcher   match.Matcher
	env       Env

	searchRunner   fanout.Runner
	enrichRunner   fanout.Runner
	validateRunner fanout.Runner
	contactRunner  fanout.Runner
}

// New creates a Pipeline. Each provider gets its own Executor built from its
// configured limits; validation runs on a Pool.
func New(
	cfg *config.Config,
	serperClient serper.Client,
	icypeasClient icypeas.Client,
	findymailClient findymail.Client,
	matcher match.Matcher,
	sink audit.Sink,
	rec ledger.Recorder,
) *Pipeline {
	if sink == nil {
		sink = audit.Discard
	}
	if rec == nil {
		rec = ledger.New()
	}
	return &Pipeline{
		cfg:            cfg,
		serper:         serperClient,
		icypeas:        icypeasClient,
		findymail:      findymailClient,
		matcher:        matcher,
		env:            Env{Audit: sink, Ledger: rec},
		searchRunner:   fanout.NewExecutor(cfg.Serper.Limits),
		enrichRunner:   fanout.NewExecutor(cfg.Icypeas.Limits),
		validateRunner: fanout.NewPool(cfg.Pipeline.ValidationWorkers),
		contactRunner:  fanout.NewExecutor(cfg.Findymail.Limits),
	}
}

// Report is what a run produced.
type Report struct {
	Queries    []model.Query             `json:"queries"`
	Candidates []model.Candidate         `json:"candidates"`
	Enriched   []model.EnrichedCandidate `json:"-"`
	Results    []model.ValidationResult  `json:"results"`
	Elapsed    time.Duration             `json:"elapsed"`
}

// Run executes every stage in order. Item failures never fail the run; the
// only error returned is a cancelled or expired ctx.
func (p *Pipeline) Run(ctx context.Context, companies []model.Company, titles []string) (*Report, error) {
	log := zap.L().With(zap.Int("companies", len(companies)), zap.Int("titles", len(titles)))
	log.Info("pipeline: starting run")
	start := time.Now()
	report := &Report{}

	p.env.Ledger.Add(ledger.StageInput, ledger.Companies, int64(len(companies)))

	report.Queries = query.Generate(companies, titles)
	p.env.Ledger.Add(ledger.StageQuery, ledger.Queries, int64(len(report.Queries)))
	log.Info("pipeline: queries generated", zap.Int("queries", len(report.Queries)))
	if err := ctx.Err(); err != nil {
		return report, eris.Wrap(err, "pipeline: before search")
	}

	results := SearchPhase(ctx, report.Queries, p.serper, p.searchRunner, p.env)
	if err := ctx.Err(); err != nil {
		return report, eris.Wrap(err, "pipeline: search")
	}

	// Fold in generation order so first-seen attribution does not depend on
	// which request finished first.
	sort.Slice(results, func(i, j int) bool { return results[i].Query.Seq < results[j].Query.Seq })
	report.Candidates = Dedup(ctx, results, p.env)
	p.env.Ledger.Add(ledger.StageDedup, ledger.Candidates, int64(len(report.Candidates)))
	log.Info("pipeline: deduplicated", zap.Int("candidates", len(report.Candidates)))

	report.Enriched = EnrichPhase(ctx, report.Candidates, p.icypeas, p.enrichRunner, p.cfg.Pipeline.BatchSize, p.env)
	if err := ctx.Err(); err != nil {
		return report, eris.Wrap(err, "pipeline: enrich")
	}

	valid := ValidatePhase(ctx, report.Enriched, p.matcher, p.validateRunner, p.env)
	if err := ctx.Err(); err != nil {
		return report, eris.Wrap(err, "pipeline: validate")
	}

	report.Results = ContactPhase(ctx, valid, p.findymail, p.contactRunner, p.env)
	sort.Slice(report.Results, func(i, j int) bool {
		a, b := report.Results[i], report.Results[j]
		if a.Query.Seq != b.Query.Seq {
			return a.Query.Seq < b.Query.Seq
		}
		return a.URL < b.URL
	})
	if err := ctx.Err(); err != nil {
		return report, eris.Wrap(err, "pipeline: contact")
	}

	report.Elapsed = time.Since(start)
	log.Info("pipeline: run complete",
		zap.Int("results", len(report.Results)),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}
