package parsez

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the Fold connector.
const (
	// Metrics.
	FoldParsesTotal    = metricz.Key("fold.parses.total")
	FoldSuccessesTotal = metricz.Key("fold.successes.total")
	FoldFailuresTotal  = metricz.Key("fold.failures.total")
	FoldIterations     = metricz.Key("fold.iterations")

	// Spans.
	FoldParseSpan = tracez.Key("fold.parse")

	// Tags.
	FoldTagCount   = tracez.Tag("fold.count")
	FoldTagSuccess = tracez.Tag("fold.success")
	FoldTagError   = tracez.Tag("fold.error")

	// Hook event keys.
	FoldEventDone = hookz.Key("fold.done")
)

// FoldEvent represents the completion of a fold.
type FoldEvent struct {
	Name      Name      // Connector name
	BodyName  Name      // Name of the body parser
	Count     int       // Completed repetitions
	Success   bool      // Whether the fold satisfied its bounds
	Error     error     // Error if the fold failed
	Timestamp time.Time // When the event occurred
}

// Fold repeats a body parser between min and max times (max < 0 means
// unbounded) and reduces the outputs left-to-right into an accumulator
// instead of collecting a slice. The init function produces a fresh
// accumulator per invocation, so a fold value is safe to share across
// goroutines and never leaks state between parses.
//
// Left-to-right reduction makes left-associative grammars natural:
//
//	// term ('-' term)* folding into a running difference
//	sub := parsez.NewFold("sub", 0, -1, rhs,
//		func() int64 { return 0 },
//		func(acc, x int64) int64 { return acc - x },
//	)
//
// Repetition semantics are identical to Repeat, including the rejection of
// zero-consumption bodies.
type Fold[I Cursor, O, A any] struct {
	name    Name
	min     int
	max     int
	body    Parser[I, O]
	init    func() A
	combine func(A, O) A
	mu      sync.RWMutex
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[FoldEvent]
}

// NewFold creates a new Fold connector. Panics if body, init, or combine is
// nil, or if the bounds are inconsistent.
func NewFold[I Cursor, O, A any](name Name, min, max int, body Parser[I, O], init func() A, combine func(A, O) A) *Fold[I, O, A] {
	if body == nil {
		panic("NewFold requires a body parser")
	}
	if init == nil || combine == nil {
		panic("NewFold requires init and combine functions")
	}
	if min < 0 || (max >= 0 && max < min) {
		panic(fmt.Sprintf("NewFold bounds %d..%d are inconsistent", min, max))
	}

	metrics := metricz.New()
	metrics.Counter(FoldParsesTotal)
	metrics.Counter(FoldSuccessesTotal)
	metrics.Counter(FoldFailuresTotal)
	metrics.Gauge(FoldIterations)

	return &Fold[I, O, A]{
		name:    name,
		min:     min,
		max:     max,
		body:    body,
		init:    init,
		combine: combine,
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[FoldEvent](),
	}
}

// Parse implements the Parser interface.
func (f *Fold[I, O, A]) Parse(ctx context.Context, in I) (I, A, *Fail) {
	f.mu.RLock()
	min, max, body := f.min, f.max, f.body
	init, combine := f.init, f.combine
	f.mu.RUnlock()

	if ctx == nil {
		ctx = context.Background()
	}

	f.metrics.Counter(FoldParsesTotal).Inc()

	ctx, span := f.tracer.StartSpan(ctx, FoldParseSpan)
	defer span.Finish()

	acc := init()
	rest, count, fail := runRepeat(ctx, in, f.name, min, max, body, func(o O) {
		acc = combine(acc, o)
	})

	span.SetTag(FoldTagCount, fmt.Sprintf("%d", count))
	f.metrics.Gauge(FoldIterations).Set(float64(count))

	event := FoldEvent{
		Name:      f.name,
		BodyName:  body.Name(),
		Count:     count,
		Success:   fail == nil,
		Timestamp: time.Now(),
	}
	if fail != nil {
		event.Error = fail
	}
	_ = f.hooks.Emit(ctx, FoldEventDone, event) //nolint:errcheck

	if fail != nil {
		span.SetTag(FoldTagSuccess, "false")
		span.SetTag(FoldTagError, fail.Error())
		f.metrics.Counter(FoldFailuresTotal).Inc()
		var zero A
		return in, zero, fail
	}

	span.SetTag(FoldTagSuccess, "true")
	f.metrics.Counter(FoldSuccessesTotal).Inc()
	return rest, acc, nil
}

// SetBody replaces the body parser.
func (f *Fold[I, O, A]) SetBody(body Parser[I, O]) *Fold[I, O, A] {
	if body == nil {
		panic("SetBody requires a body parser")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body = body
	return f
}

// SetBounds replaces the repetition bounds.
func (f *Fold[I, O, A]) SetBounds(min, max int) *Fold[I, O, A] {
	if min < 0 || (max >= 0 && max < min) {
		panic(fmt.Sprintf("SetBounds %d..%d are inconsistent", min, max))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.min, f.max = min, max
	return f
}

// Name returns the name of this connector.
func (f *Fold[I, O, A]) Name() Name {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.name
}

// Metrics returns the metrics registry for this connector.
func (f *Fold[I, O, A]) Metrics() *metricz.Registry {
	return f.metrics
}

// Tracer returns the tracer for this connector.
func (f *Fold[I, O, A]) Tracer() *tracez.Tracer {
	return f.tracer
}

// OnDone registers a handler called when a fold finishes.
func (f *Fold[I, O, A]) OnDone(handler func(context.Context, FoldEvent) error) error {
	_, err := f.hooks.Hook(FoldEventDone, handler)
	return err
}

// Close gracefully shuts down observability components.
func (f *Fold[I, O, A]) Close() error {
	if f.tracer != nil {
		f.tracer.Close()
	}
	f.hooks.Close()
	return nil
}
