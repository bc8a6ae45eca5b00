// Package fanout dispatches independent work items against external providers
// under a concurrency cap and, for network calls, a throughput cap.
package fanout

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Runner executes n independent tasks and blocks until every one has returned.
// report is called exactly once per task, from the task's goroutine, with the
// task's index and its outcome: nil on success, the task's error, a recovered
// panic, or the admission error when the runner could not start the task.
type Runner interface {
	Run(ctx context.Context, n int, task func(ctx context.Context, i int) error, report func(i int, err error))
}

// Limits bounds an Executor. RatePerSecond <= 0 disables the throughput cap.
type Limits struct {
	Concurrency   int     `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst         int     `yaml:"burst" mapstructure:"burst"`
}

// Executor is the Runner for provider calls: at most Concurrency tasks are in
// flight and task starts are paced by a token bucket of RatePerSecond.
type Executor struct {
	concurrency int
	limiter     *rate.Limiter
}

// NewExecutor creates an Executor from limits.
func NewExecutor(l Limits) *Executor {
	limit := rate.Inf
	if l.RatePerSecond > 0 && !math.IsInf(l.RatePerSecond, 1) {
		limit = rate.Limit(l.RatePerSecond)
	}
	burst := l.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Executor{
		concurrency: max(l.Concurrency, 1),
		limiter:     rate.NewLimiter(limit, burst),
	}
}

// Run implements Runner.
func (e *Executor) Run(ctx context.Context, n int, task func(ctx context.Context, i int) error, report func(i int, err error)) {
	run(ctx, n, e.concurrency, func(ctx context.Context) error {
		if err := e.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "fanout: rate limit wait")
		}
		return nil
	}, task, report)
}

// Pool is the Runner for blocking work that needs true parallel dispatch
// without pacing, such as the validation rule chain.
type Pool struct {
	workers int
}

// NewPool creates a Pool with the given number of workers (minimum 1).
func NewPool(workers int) *Pool {
	return &Pool{workers: max(workers, 1)}
}

// Run implements Runner.
func (p *Pool) Run(ctx context.Context, n int, task func(ctx context.Context, i int) error, report func(i int, err error)) {
	run(ctx, n, p.workers, nil, task, report)
}

func run(ctx context.Context, n, limit int, admit func(context.Context) error, task func(context.Context, int) error, report func(int, error)) {
	var g errgroup.Group
	g.SetLimit(limit)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if admit != nil {
				if err := admit(ctx); err != nil {
					report(i, err)
					return nil
				}
			}
			report(i, call(ctx, i, task))
			return nil // never cancel siblings
		})
	}

	_ = g.Wait()
}

func call(ctx context.Context, i int, task func(context.Context, int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("fanout: task %d panicked: %v", i, r)
		}
	}()
	return task(ctx, i)
}

// Stream runs op over items on r and delivers one output per item, in
// completion order, on the returned channel. The channel is closed after the
// last item finishes. When op fails, panics, or cannot be admitted, the output
// for that item is onFail(item, err); onFail is where callers record the
// failure, and it never stops sibling items.
func Stream[In, Out any](ctx context.Context, r Runner, items []In, op func(context.Context, In) (Out, error), onFail func(In, error) Out) <-chan Out {
	out := make(chan Out, len(items))
	slots := make([]Out, len(items))

	go func() {
		defer close(out)
		r.Run(ctx, len(items),
			func(ctx context.Context, i int) error {
				v, err := op(ctx, items[i])
				if err != nil {
					return err
				}
				slots[i] = v
				return nil
			},
			func(i int, err error) {
				if err != nil {
					out <- onFail(items[i], err)
					return
				}
				out <- slots[i]
			},
		)
	}()

	return out
}

// Collect drains ch into a slice.
func Collect[Out any](ch <-chan Out) []Out {
	var all []Out
	for v := range ch {
		all = append(all, v)
	}
	return all
}
