package main

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/audit"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/config"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/ledger"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/match"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/pipeline"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/resilience"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/store"
	anthropicpkg "github.com/johntannerworthington/icypeascontactgenerator/pkg/anthropic"
	"github.com/johntannerworthington/icypeascontactgenerator/pkg/findymail"
	"github.com/johntannerworthington/icypeascontactgenerator/pkg/icypeas"
	"github.com/johntannerworthington/icypeascontactgenerator/pkg/openai"
	"github.com/johntannerworthington/icypeascontactgenerator/pkg/serper"
)

// pipelineEnv holds the pipeline and everything that must be flushed or
// closed when a run ends.
type pipelineEnv struct {
	Pipeline *pipeline.Pipeline
	Ledger   *ledger.Ledger
	Store    store.Store // nil when no audit database is configured
	RunID    string

	csv *audit.CSVSink
}

// Close flushes the audit file and closes the store.
func (pe *pipelineEnv) Close() {
	if pe.csv != nil {
		if err := pe.csv.Close(); err != nil {
			zap.L().Warn("close audit csv", zap.Error(err))
		}
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// Finish records the run outcome in the audit database, if any.
func (pe *pipelineEnv) Finish(ctx context.Context, runErr error) {
	if pe.Store == nil {
		return
	}
	status := store.RunStatusComplete
	if runErr != nil {
		status = store.RunStatusFailed
	}
	if err := pe.Store.CompleteRun(context.WithoutCancel(ctx), pe.RunID, status, pe.Ledger.Snapshot()); err != nil {
		zap.L().Warn("complete run", zap.String("run_id", pe.RunID), zap.Error(err))
	}
}

// initPipeline builds the provider clients, the matcher, and the audit sinks
// from cfg. Callers should defer env.Close().
func initPipeline(ctx context.Context, c *config.Config) (*pipelineEnv, error) {
	matcher, err := buildMatcher(c)
	if err != nil {
		return nil, err
	}

	env := &pipelineEnv{Ledger: ledger.New()}
	var sinks audit.Multi

	if c.Audit.CSVPath != "" {
		env.csv, err = audit.NewCSVSink(c.Audit.CSVPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, env.csv)
	}

	if c.Audit.SQLitePath != "" {
		st, err := initStore(ctx, c.Audit.SQLitePath)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.Store = st

		run, err := st.CreateRun(ctx)
		if err != nil {
			env.Close()
			return nil, eris.Wrap(err, "create run")
		}
		env.RunID = run.ID
		sinks = append(sinks, audit.NewStoreSink(st, run.ID))
		zap.L().Info("audit run created", zap.String("run_id", run.ID))
	}

	env.Pipeline = pipeline.New(c,
		serper.NewClient(c.Serper.Key, serper.WithBaseURL(c.Serper.BaseURL)),
		icypeas.NewClient(c.Icypeas.Key, icypeas.WithBaseURL(c.Icypeas.BaseURL)),
		findymail.NewClient(c.Findymail.Key, findymail.WithBaseURL(c.Findymail.BaseURL)),
		matcher,
		sinks,
		env.Ledger,
	)
	return env, nil
}

// initStore opens and migrates the SQLite audit database.
func initStore(ctx context.Context, path string) (store.Store, error) {
	st, err := store.NewSQLite(path)
	if err != nil {
		return nil, eris.Wrap(err, "open audit db")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate audit db")
	}
	return st, nil
}

// buildMatcher selects the semantic-match oracle. Model-backed matchers share
// one circuit breaker per provider.
func buildMatcher(c *config.Config) (match.Matcher, error) {
	switch c.Match.Provider {
	case "openai":
		client := openai.NewClient(c.OpenAI.Key,
			openai.WithBaseURL(c.OpenAI.BaseURL),
			openai.WithModel(c.OpenAI.Model),
		)
		return match.NewLLMMatcher(
			match.NewOpenAICompleter(client, c.OpenAI.Model),
			resilience.NewBreaker("openai", c.Breaker),
		), nil
	case "anthropic":
		var opts []option.RequestOption
		if c.Anthropic.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(c.Anthropic.BaseURL))
		}
		client := anthropicpkg.NewClient(c.Anthropic.Key, opts...)
		return match.NewLLMMatcher(
			match.NewAnthropicCompleter(client, c.Anthropic.Model),
			resilience.NewBreaker("anthropic", c.Breaker),
		), nil
	case "fold":
		return match.FoldMatcher{}, nil
	default:
		return nil, eris.Errorf("unknown match provider %q", c.Match.Provider)
	}
}

// validateAPIKeys reports every credential the configured run needs but lacks.
func validateAPIKeys(c *config.Config) error {
	var missing []string

	if c.Serper.Key == "" {
		missing = append(missing, "CONTACTGEN_SERPER_KEY (required: search)")
	}
	if c.Icypeas.Key == "" {
		missing = append(missing, "CONTACTGEN_ICYPEAS_KEY (required: enrichment)")
	}
	if c.Findymail.Key == "" {
		missing = append(missing, "CONTACTGEN_FINDYMAIL_KEY (required: contact discovery)")
	}
	switch c.Match.Provider {
	case "openai":
		if c.OpenAI.Key == "" {
			missing = append(missing, "CONTACTGEN_OPENAI_KEY (required: match.provider=openai)")
		}
	case "anthropic":
		if c.Anthropic.Key == "" {
			missing = append(missing, "CONTACTGEN_ANTHROPIC_KEY (required: match.provider=anthropic)")
		}
	}

	if len(missing) > 0 {
		return eris.Errorf("missing required API keys:\n  %s\n\nSet these env vars or add them to config.yaml", strings.Join(missing, "\n  "))
	}
	return nil
}
