// Package store persists pipeline runs and their audit trail.
package store

import (
	"context"
	"time"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/model"
)

// RunStatus represents the state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one invocation of the pipeline.
type Run struct {
	ID          string           `json:"id"`
	Status      RunStatus        `json:"status"`
	Counts      map[string]int64 `json:"counts,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// Store defines the persistence interface for runs and audit entries.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*Run, error)
	CompleteRun(ctx context.Context, runID string, status RunStatus, counts map[string]int64) error
	GetRun(ctx context.Context, runID string) (*Run, error)

	// Audit
	AppendAudit(ctx context.Context, runID string, entry model.AuditEntry) error
	ListAudit(ctx context.Context, runID string) ([]model.AuditEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
