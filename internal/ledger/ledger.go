// Package ledger accumulates per-stage usage counters and prices them.
package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/cost"
)

// Stage names a pipeline stage.
type Stage string

const (
	StageInput    Stage = "input"
	StageQuery    Stage = "query"
	StageSearch   Stage = "search"
	StageDedup    Stage = "dedup"
	StageEnrich   Stage = "enrich"
	StageValidate Stage = "validate"
	StageContact  Stage = "contact"
)

// Counter names a usage counter within a stage.
type Counter string

const (
	Companies   Counter = "companies"
	Queries     Counter = "queries"
	Requests    Counter = "requests"
	Credits     Counter = "credits"
	URLsFound   Counter = "urls_found"
	Candidates  Counter = "candidates"
	Profiles    Counter = "profiles"
	MatchTokens Counter = "match_tokens"
	Matches     Counter = "matches"
	Emails      Counter = "emails"
	Dropped     Counter = "dropped"
)

// Recorder is the write side of the ledger used by stage workers.
type Recorder interface {
	Add(stage Stage, counter Counter, n int64)
}

type key struct {
	stage   Stage
	counter Counter
}

// Ledger is a Recorder safe for concurrent use. Every Add is mirrored to a
// Prometheus counter so the totals can be exported after the run.
type Ledger struct {
	mu     sync.Mutex
	totals map[key]int64

	registry *prometheus.Registry
	counters *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates a Ledger with its own metrics registry.
func New() *Ledger {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Ledger{
		totals:   make(map[key]int64),
		registry: reg,
		counters: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactgen_stage_total",
				Help: "Usage counters per pipeline stage",
			},
			[]string{"stage", "counter"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contactgen_stage_duration_seconds",
				Help:    "Wall time of each pipeline stage",
				Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
			},
			[]string{"stage"},
		),
	}
}

// Add implements Recorder. Non-positive n is ignored.
func (l *Ledger) Add(stage Stage, counter Counter, n int64) {
	if n <= 0 {
		return
	}
	l.mu.Lock()
	l.totals[key{stage, counter}] += n
	l.mu.Unlock()
	l.counters.WithLabelValues(string(stage), string(counter)).Add(float64(n))
}

// ObserveStage records how long a stage took.
func (l *Ledger) ObserveStage(stage Stage, d time.Duration) {
	l.duration.WithLabelValues(string(stage)).Observe(d.Seconds())
}

// Get returns one total.
func (l *Ledger) Get(stage Stage, counter Counter) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totals[key{stage, counter}]
}

// Snapshot returns all totals keyed "stage.counter".
func (l *Ledger) Snapshot() map[string]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int64, len(l.totals))
	for k, v := range l.totals {
		out[string(k.stage)+"."+string(k.counter)] = v
	}
	return out
}

// Registry exposes the metrics registry.
func (l *Ledger) Registry() *prometheus.Registry {
	return l.registry
}

// WriteTextfile writes the metrics in Prometheus text format to path.
func (l *Ledger) WriteTextfile(path string) error {
	return eris.Wrapf(prometheus.WriteToTextfile(path, l.registry), "ledger: write %s", path)
}

// Summary is the end-of-run usage and cost report.
type Summary struct {
	Companies        int64   `json:"companies"`
	Queries          int64   `json:"queries"`
	SerperCredits    int64   `json:"serper_credits"`
	SerperCost       float64 `json:"serper_cost"`
	URLsFound        int64   `json:"urls_found"`
	Deduplicated     int64   `json:"deduplicated"`
	IcypeasProfiles  int64   `json:"icypeas_profiles"`
	IcypeasCredits   float64 `json:"icypeas_credits"`
	IcypeasCost      float64 `json:"icypeas_cost"`
	MatchTokens      int64   `json:"match_tokens"`
	MatchCost        float64 `json:"match_cost"`
	Matches          int64   `json:"matches"`
	Emails           int64   `json:"emails"`
	FindymailCredits int64   `json:"findymail_credits"`
	FindymailCost    float64 `json:"findymail_cost"`
	TotalCost        float64 `json:"total_cost"`
}

// Summary prices the current totals.
func (l *Ledger) Summary(calc *cost.Calculator) Summary {
	s := Summary{
		Companies:        l.Get(StageInput, Companies),
		Queries:          l.Get(StageQuery, Queries),
		SerperCredits:    l.Get(StageSearch, Credits),
		URLsFound:        l.Get(StageSearch, URLsFound),
		Deduplicated:     l.Get(StageDedup, Candidates),
		IcypeasProfiles:  l.Get(StageEnrich, Profiles),
		MatchTokens:      l.Get(StageValidate, MatchTokens),
		Matches:          l.Get(StageValidate, Matches),
		Emails:           l.Get(StageContact, Emails),
		FindymailCredits: l.Get(StageContact, Credits),
	}
	s.SerperCost = calc.Serper(s.SerperCredits)
	s.IcypeasCredits = calc.IcypeasCredits(s.IcypeasProfiles)
	s.IcypeasCost = calc.Icypeas(s.IcypeasProfiles)
	s.MatchCost = calc.Match(s.MatchTokens)
	s.FindymailCost = calc.Findymail(s.FindymailCredits)
	s.TotalCost = s.SerperCost + s.IcypeasCost + s.MatchCost + s.FindymailCost
	return s
}

// Log writes the summary and the dropped counts per stage.
func (l *Ledger) Log(s Summary) {
	zap.L().Info("run summary",
		zap.Int64("companies", s.Companies),
		zap.Int64("queries", s.Queries),
		zap.Int64("serper_credits", s.SerperCredits),
		zap.Float64("serper_cost_usd", s.SerperCost),
		zap.Int64("urls_found", s.URLsFound),
		zap.Int64("deduplicated", s.Deduplicated),
		zap.Float64("icypeas_credits", s.IcypeasCredits),
		zap.Float64("icypeas_cost_usd", s.IcypeasCost),
		zap.Int64("match_tokens", s.MatchTokens),
		zap.Float64("match_cost_usd", s.MatchCost),
		zap.Int64("matches", s.Matches),
		zap.Int64("emails", s.Emails),
		zap.Int64("findymail_credits", s.FindymailCredits),
		zap.Float64("findymail_cost_usd", s.FindymailCost),
		zap.Float64("total_cost_usd", s.TotalCost),
	)

	l.mu.Lock()
	var stages []string
	dropped := make(map[string]int64)
	for k, v := range l.totals {
		if k.counter == Dropped {
			stages = append(stages, string(k.stage))
			dropped[string(k.stage)] = v
		}
	}
	l.mu.Unlock()

	sort.Strings(stages)
	for _, st := range stages {
		zap.L().Info("stage drops", zap.String("stage", st), zap.Int64("dropped", dropped[st]))
	}
}
