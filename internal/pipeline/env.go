package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/audit"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/ledger"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/model"
)

// StageObserver is implemented by recorders that also track stage timings.
type StageObserver interface {
	ObserveStage(stage ledger.Stage, d time.Duration)
}

// Env is the shared state every phase reports to. Both fields are safe for
// concurrent use.
type Env struct {
	Audit  audit.Sink
	Ledger ledger.Recorder
}

// drop records why q's unit of work left the pipeline at stage.
func (e Env) drop(ctx context.Context, stage ledger.Stage, q model.Query, reason string) {
	e.Ledger.Add(stage, ledger.Dropped, 1)
	e.note(ctx, stage, q, reason)
}

// note records an audit entry for a unit that stays in the pipeline.
func (e Env) note(ctx context.Context, stage ledger.Stage, q model.Query, reason string) {
	e.Audit.Record(ctx, model.NewAuditEntry(q, reason))
	zap.L().Debug("pipeline: audit",
		zap.String("stage", string(stage)),
		zap.String("query", q.Text),
		zap.String("reason", reason),
	)
}

func (e Env) observe(stage ledger.Stage, d time.Duration) {
	if o, ok := e.Ledger.(StageObserver); ok {
		o.ObserveStage(stage, d)
	}
}
