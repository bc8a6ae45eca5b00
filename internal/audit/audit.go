// Package audit records why each unit of work left the pipeline.
package audit

import (
	"context"
	"encoding/csv"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/model"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/store"
)

// Sink receives audit entries from concurrent stage workers. Record never
// fails the caller; sinks log their own write errors.
type Sink interface {
	Record(ctx context.Context, entry model.AuditEntry)
}

// CSVHeader is the header row of the audit CSV.
var CSVHeader = []string{"Query", "Exit Reason"}

// CSVSink appends one row per entry to a CSV file, flushing after each row.
type CSVSink struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

// NewCSVSink creates (or truncates) path and writes the header row.
func NewCSVSink(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "audit: create %s", path)
	}
	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader); err != nil {
		f.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "audit: write header")
	}
	w.Flush()
	return &CSVSink{f: f, w: w}, nil
}

// Record implements Sink.
func (s *CSVSink) Record(_ context.Context, entry model.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.Write([]string{entry.Query, entry.Reason}); err != nil {
		zap.L().Error("audit: csv write failed", zap.String("query", entry.Query), zap.Error(err))
		return
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		zap.L().Error("audit: csv flush failed", zap.Error(err))
	}
}

// Close flushes and closes the file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.f.Close() //nolint:errcheck
		return eris.Wrap(err, "audit: flush")
	}
	return eris.Wrap(s.f.Close(), "audit: close")
}

// StoreSink persists entries to a run's audit trail in a store.
type StoreSink struct {
	store store.Store
	runID string
}

// NewStoreSink creates a sink that appends to runID in st.
func NewStoreSink(st store.Store, runID string) *StoreSink {
	return &StoreSink{store: st, runID: runID}
}

// Record implements Sink.
func (s *StoreSink) Record(ctx context.Context, entry model.AuditEntry) {
	// Entries recorded while the run is being cancelled still belong in the trail.
	if err := s.store.AppendAudit(context.WithoutCancel(ctx), s.runID, entry); err != nil {
		zap.L().Error("audit: store append failed",
			zap.String("run_id", s.runID),
			zap.String("query", entry.Query),
			zap.Error(err),
		)
	}
}

// MemorySink keeps entries in memory.
type MemorySink struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

// Record implements Sink.
func (s *MemorySink) Record(_ context.Context, entry model.AuditEntry) {
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
}

// Entries returns a copy of everything recorded so far.
func (s *MemorySink) Entries() []model.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditEntry(nil), s.entries...)
}

// Reasons returns the recorded reasons in record order.
func (s *MemorySink) Reasons() []string {
	entries := s.Entries()
	reasons := make([]string, len(entries))
	for i, e := range entries {
		reasons[i] = e.Reason
	}
	return reasons
}

// Multi records every entry to each sink in order.
type Multi []Sink

// Record implements Sink.
func (m Multi) Record(ctx context.Context, entry model.AuditEntry) {
	for _, s := range m {
		s.Record(ctx, entry)
	}
}

// Discard drops every entry.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(context.Context, model.AuditEntry) {}
