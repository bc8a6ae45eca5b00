// Package resilience guards external oracles: it classifies failures as
// transient or permanent and stops calling a provider that keeps failing.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// State is the breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned without calling the oracle while the breaker is open.
var ErrOpen = eris.New("circuit breaker is open")

// BreakerConfig controls a Breaker.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeout     time.Duration `yaml:"reset_timeout" mapstructure:"reset_timeout"`
}

// Breaker fails fast after FailureThreshold consecutive transient failures.
// After ResetTimeout one probe call is let through; its outcome closes or
// reopens the breaker. Permanent errors such as a rejected request do not
// count, since the provider is answering.
type Breaker struct {
	name string
	cfg  BreakerConfig

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool

	now func() time.Time
}

// NewBreaker creates a breaker for the named oracle. Zero config values fall
// back to 5 failures and 30 seconds.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	return &Breaker{name: name, cfg: cfg, now: time.Now}
}

// Do runs fn through the breaker and returns its value. A panic in fn is
// recorded as a failed call before it propagates.
func Do[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	probe, err := b.admit()
	if err != nil {
		return zero, eris.Wrapf(err, "%s", b.name)
	}
	defer func() {
		if r := recover(); r != nil {
			b.record(eris.Errorf("%s: panic: %v", b.name, r), probe)
			panic(r)
		}
	}()
	v, err := fn(ctx)
	b.record(err, probe)
	return v, err
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// admit reports whether the call was let through as the half-open probe.
func (b *Breaker) admit() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.cfg.ResetTimeout {
			return false, ErrOpen
		}
		b.transition(HalfOpen)
		b.probing = true
		return true, nil
	case HalfOpen:
		// One probe at a time.
		if b.probing {
			return false, ErrOpen
		}
		b.probing = true
		return true, nil
	default:
		return false, nil
	}
}

func (b *Breaker) record(err error, probe bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if probe {
		b.probing = false
	} else if b.state != Closed {
		// Admitted before the breaker opened; only the probe decides now.
		return
	}

	if err == nil || !IsTransient(err) {
		b.failures = 0
		if b.state != Closed {
			b.transition(Closed)
		}
		return
	}

	b.failures++
	switch b.state {
	case Closed:
		if b.failures >= b.cfg.FailureThreshold {
			b.openedAt = b.now()
			b.transition(Open)
		}
	case HalfOpen:
		b.openedAt = b.now()
		b.transition(Open)
	}
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	zap.L().Warn("resilience: breaker state change",
		zap.String("oracle", b.name),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)
}
