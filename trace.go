package parsez

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the Trace connector.
const (
	// Metrics.
	TraceParsesTotal     = metricz.Key("trace.parses.total")
	TraceSuccessesTotal  = metricz.Key("trace.successes.total")
	TraceFailuresTotal   = metricz.Key("trace.failures.total")
	TraceIncompleteTotal = metricz.Key("trace.incomplete.total")
	TraceDurationMs      = metricz.Key("trace.duration.ms")
	TraceConsumed        = metricz.Key("trace.consumed")

	// Spans.
	TraceParseSpan = tracez.Key("trace.parse")

	// Tags.
	TraceTagParser   = tracez.Tag("trace.parser")
	TraceTagSuccess  = tracez.Tag("trace.success")
	TraceTagMode     = tracez.Tag("trace.mode")
	TraceTagError    = tracez.Tag("trace.error")
	TraceTagConsumed = tracez.Tag("trace.consumed")

	// Hook event keys.
	TraceEventParsed = hookz.Key("trace.parsed")
)

// TraceEvent represents a single observed parse.
type TraceEvent struct {
	Name       Name          // Connector name
	ParserName Name          // Name of the wrapped parser
	Success    bool          // Whether the parse succeeded
	Mode       Mode          // Failure mode, if any
	Error      error         // Error if the parse failed
	Consumed   int           // Input consumed on success
	Duration   time.Duration // Wall time of the parse
	Timestamp  time.Time     // When the parse finished
}

// Trace wraps any parser with metrics, spans, and hook events without
// changing its behavior. Grammars are built from plain rule values that
// carry no instrumentation of their own; wrapping the hot or suspect rules
// in Trace lights them up individually.
//
//	header := parsez.NewTrace("trace-header", headerRule)
//	header.OnParsed(func(_ context.Context, e parsez.TraceEvent) error {
//		log.Printf("%s: %v in %v", e.ParserName, e.Success, e.Duration)
//		return nil
//	})
//
// # Observability
//
// Metrics:
//   - trace.parses.total: Counter of parses
//   - trace.successes.total: Counter of successful parses
//   - trace.failures.total: Counter of failed parses (backtrack or cut)
//   - trace.incomplete.total: Counter of incomplete outcomes
//   - trace.duration.ms: Gauge of the last parse duration
//   - trace.consumed: Gauge of input consumed by the last success
//
// Traces:
//   - trace.parse: Span covering the wrapped parse
//
// Events (via hooks):
//   - trace.parsed: Fired after every parse, success or failure
type Trace[I Cursor, O any] struct {
	name    Name
	parser  Parser[I, O]
	mu      sync.RWMutex
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[TraceEvent]
	clock   clockz.Clock
}

// NewTrace creates a new Trace connector around a parser. Panics if parser
// is nil.
func NewTrace[I Cursor, O any](name Name, parser Parser[I, O]) *Trace[I, O] {
	if parser == nil {
		panic("NewTrace requires a parser")
	}

	metrics := metricz.New()
	metrics.Counter(TraceParsesTotal)
	metrics.Counter(TraceSuccessesTotal)
	metrics.Counter(TraceFailuresTotal)
	metrics.Counter(TraceIncompleteTotal)
	metrics.Gauge(TraceDurationMs)
	metrics.Gauge(TraceConsumed)

	return &Trace[I, O]{
		name:    name,
		parser:  parser,
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[TraceEvent](),
	}
}

func (t *Trace[I, O]) getClock() clockz.Clock {
	if t.clock == nil {
		return clockz.RealClock
	}
	return t.clock
}

// WithClock sets a custom clock for testing.
func (t *Trace[I, O]) WithClock(clock clockz.Clock) *Trace[I, O] {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clock = clock
	return t
}

// Parse implements the Parser interface.
func (t *Trace[I, O]) Parse(ctx context.Context, in I) (I, O, *Fail) {
	t.mu.RLock()
	parser := t.parser
	clock := t.getClock()
	t.mu.RUnlock()

	if ctx == nil {
		ctx = context.Background()
	}

	t.metrics.Counter(TraceParsesTotal).Inc()

	ctx, span := t.tracer.StartSpan(ctx, TraceParseSpan)
	defer span.Finish()
	span.SetTag(TraceTagParser, string(parser.Name()))

	start := clock.Now()
	rest, out, fail := parser.Parse(ctx, in)
	elapsed := clock.Now().Sub(start)

	t.metrics.Gauge(TraceDurationMs).Set(float64(elapsed.Milliseconds()))

	event := TraceEvent{
		Name:       t.name,
		ParserName: parser.Name(),
		Success:    fail == nil,
		Duration:   elapsed,
		Timestamp:  clock.Now(),
	}

	if fail != nil {
		event.Mode = fail.Mode
		event.Error = fail
		span.SetTag(TraceTagSuccess, "false")
		span.SetTag(TraceTagMode, fail.Mode.String())
		span.SetTag(TraceTagError, fail.Error())
		if fail.Mode == Incomplete {
			t.metrics.Counter(TraceIncompleteTotal).Inc()
		} else {
			t.metrics.Counter(TraceFailuresTotal).Inc()
		}
		_ = t.hooks.Emit(ctx, TraceEventParsed, event) //nolint:errcheck
		return in, out, fail.frame(t.name, in.Len())
	}

	consumed := in.Len() - rest.Len()
	event.Consumed = consumed
	t.metrics.Gauge(TraceConsumed).Set(float64(consumed))
	span.SetTag(TraceTagSuccess, "true")
	span.SetTag(TraceTagConsumed, fmt.Sprintf("%d", consumed))
	t.metrics.Counter(TraceSuccessesTotal).Inc()
	_ = t.hooks.Emit(ctx, TraceEventParsed, event) //nolint:errcheck

	return rest, out, nil
}

// SetParser replaces the wrapped parser.
func (t *Trace[I, O]) SetParser(parser Parser[I, O]) *Trace[I, O] {
	if parser == nil {
		panic("SetParser requires a parser")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.parser = parser
	return t
}

// Name returns the name of this connector.
func (t *Trace[I, O]) Name() Name {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.name
}

// Metrics returns the metrics registry for this connector.
func (t *Trace[I, O]) Metrics() *metricz.Registry {
	return t.metrics
}

// Tracer returns the tracer for this connector.
func (t *Trace[I, O]) Tracer() *tracez.Tracer {
	return t.tracer
}

// OnParsed registers a handler called after every parse.
func (t *Trace[I, O]) OnParsed(handler func(context.Context, TraceEvent) error) error {
	_, err := t.hooks.Hook(TraceEventParsed, handler)
	return err
}

// Close gracefully shuts down observability components.
func (t *Trace[I, O]) Close() error {
	if t.tracer != nil {
		t.tracer.Close()
	}
	t.hooks.Close()
	return nil
}
