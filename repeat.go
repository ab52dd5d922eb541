package parsez

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the Repeat connector.
const (
	// Metrics.
	RepeatParsesTotal    = metricz.Key("repeat.parses.total")
	RepeatSuccessesTotal = metricz.Key("repeat.successes.total")
	RepeatFailuresTotal  = metricz.Key("repeat.failures.total")
	RepeatIterations     = metricz.Key("repeat.iterations")

	// Spans.
	RepeatParseSpan = tracez.Key("repeat.parse")

	// Tags.
	RepeatTagCount   = tracez.Tag("repeat.count")
	RepeatTagSuccess = tracez.Tag("repeat.success")
	RepeatTagError   = tracez.Tag("repeat.error")

	// Hook event keys.
	RepeatEventDone = hookz.Key("repeat.done")
)

// preallocCeiling caps every accumulator capacity hint. Length-prefixed
// formats carry attacker-controlled counts; a bogus count field must never
// translate into an unbounded allocation, so hints above the ceiling
// allocate the ceiling and grow organically from there.
const preallocCeiling = 64 * 1024

// clampHint bounds an accumulator capacity hint, emitting a signal when the
// clamp engages so operators can spot hostile or corrupt inputs.
func clampHint(ctx context.Context, name Name, hint uint64) int {
	if hint <= preallocCeiling {
		return int(hint)
	}
	capitan.Emit(ctx, SignalRepeatCapped,
		FieldName.Field(string(name)),
		FieldRequested.Field(float64(hint)),
		FieldCeiling.Field(preallocCeiling),
	)
	return preallocCeiling
}

// RepeatEvent represents the completion of a repetition. It is emitted via
// hookz whether the repetition succeeded or failed.
type RepeatEvent struct {
	Name      Name      // Connector name
	BodyName  Name      // Name of the body parser
	Count     int       // Completed repetitions
	Success   bool      // Whether the repetition satisfied its bounds
	Error     error     // Error if the repetition failed
	Consumed  int       // Total input consumed
	Timestamp time.Time // When the event occurred
}

// runRepeat is the iteration engine shared by Repeat, Fold, and the
// length-prefixed rules. It re-invokes body until a bound is met, feeding
// each success into push.
//
// Termination:
//   - body returns Backtrack with at least min repetitions done: the
//     failure means "stop", not "error out". The parsers are pure, so the
//     failed attempt consumed nothing and the cursor sits at the
//     post-last-match point.
//   - body returns Backtrack below min: the repetition fails with the
//     body's error.
//   - body returns Cut or Incomplete: propagates immediately.
//   - body succeeds without consuming while the bound requests further
//     repetition: rejected as a logic error (Cut, no-progress) since it would
//     loop forever.
func runRepeat[I Cursor, O any](ctx context.Context, in I, name Name, min, max int, body Parser[I, O], push func(O)) (I, int, *Fail) {
	cur := in
	count := 0

	for max < 0 || count < max {
		rest, out, fail := body.Parse(ctx, cur)
		if fail != nil {
			if fail.Mode == Backtrack && count >= min {
				break
			}
			return in, count, fail.frame(name, in.Len())
		}

		if rest.Len() == cur.Len() && (max < 0 || count+1 < max) {
			capitan.Emit(ctx, SignalRepeatNoProgress,
				FieldName.Field(string(name)),
				FieldCount.Field(count),
				FieldRemaining.Field(cur.Len()),
			)
			return in, count, NewCut(cur, KindNoProgress).frame(name, in.Len())
		}

		push(out)
		cur = rest
		count++
	}

	if count < min {
		return in, count, NewBacktrack(cur, KindCount).frame(name, in.Len())
	}
	return cur, count, nil
}

// Repeat re-invokes a body parser between min and max times (max < 0 means
// unbounded), accumulating the outputs. The accumulator is created once per
// invocation, consumed on success, and discarded on failure, so no partial
// accumulator leaks across a failed alternative.
//
// A body that can succeed while consuming zero input is rejected as a logic
// error (it would repeat forever); detection compares cursor length before
// and after each iteration.
//
// # Observability
//
// Metrics:
//   - repeat.parses.total: Counter of repetition invocations
//   - repeat.successes.total: Counter of bound-satisfying completions
//   - repeat.failures.total: Counter of failed repetitions
//   - repeat.iterations: Gauge of repetitions completed by the last parse
//
// Traces:
//   - repeat.parse: Span for the whole repetition
//
// Events (via hooks):
//   - repeat.done: Fired when the repetition finishes, either way
type Repeat[I Cursor, O any] struct {
	name    Name
	min     int
	max     int
	body    Parser[I, O]
	mu      sync.RWMutex
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[RepeatEvent]
}

// NewRepeat creates a new Repeat connector with inclusive bounds.
// max < 0 means unbounded. Panics if body is nil or the bounds are
// inconsistent.
//
//	digits := parsez.NewRepeat("digits", 1, -1, digit)
//	octets := parsez.NewRepeat("octets", 4, 4, octet)
func NewRepeat[I Cursor, O any](name Name, min, max int, body Parser[I, O]) *Repeat[I, O] {
	if body == nil {
		panic("NewRepeat requires a body parser")
	}
	if min < 0 || (max >= 0 && max < min) {
		panic(fmt.Sprintf("NewRepeat bounds %d..%d are inconsistent", min, max))
	}

	metrics := metricz.New()
	metrics.Counter(RepeatParsesTotal)
	metrics.Counter(RepeatSuccessesTotal)
	metrics.Counter(RepeatFailuresTotal)
	metrics.Gauge(RepeatIterations)

	return &Repeat[I, O]{
		name:    name,
		min:     min,
		max:     max,
		body:    body,
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[RepeatEvent](),
	}
}

// Many0 creates an unbounded repetition accepting zero matches.
func Many0[I Cursor, O any](name Name, body Parser[I, O]) *Repeat[I, O] {
	return NewRepeat(name, 0, -1, body)
}

// Many1 creates an unbounded repetition requiring at least one match.
func Many1[I Cursor, O any](name Name, body Parser[I, O]) *Repeat[I, O] {
	return NewRepeat(name, 1, -1, body)
}

// Parse implements the Parser interface.
func (r *Repeat[I, O]) Parse(ctx context.Context, in I) (I, []O, *Fail) {
	r.mu.RLock()
	min, max, body := r.min, r.max, r.body
	r.mu.RUnlock()

	if ctx == nil {
		ctx = context.Background()
	}

	r.metrics.Counter(RepeatParsesTotal).Inc()

	ctx, span := r.tracer.StartSpan(ctx, RepeatParseSpan)
	defer span.Finish()

	acc := make([]O, 0, clampHint(ctx, r.name, uint64(min)))
	rest, count, fail := runRepeat(ctx, in, r.name, min, max, body, func(o O) {
		acc = append(acc, o)
	})

	span.SetTag(RepeatTagCount, fmt.Sprintf("%d", count))
	r.metrics.Gauge(RepeatIterations).Set(float64(count))

	event := RepeatEvent{
		Name:      r.name,
		BodyName:  body.Name(),
		Count:     count,
		Success:   fail == nil,
		Consumed:  in.Len() - rest.Len(),
		Timestamp: time.Now(),
	}
	if fail != nil {
		event.Error = fail
		event.Consumed = 0
	}
	_ = r.hooks.Emit(ctx, RepeatEventDone, event) //nolint:errcheck

	if fail != nil {
		span.SetTag(RepeatTagSuccess, "false")
		span.SetTag(RepeatTagError, fail.Error())
		r.metrics.Counter(RepeatFailuresTotal).Inc()
		return in, nil, fail
	}

	span.SetTag(RepeatTagSuccess, "true")
	r.metrics.Counter(RepeatSuccessesTotal).Inc()
	return rest, acc, nil
}

// SetBody replaces the body parser.
func (r *Repeat[I, O]) SetBody(body Parser[I, O]) *Repeat[I, O] {
	if body == nil {
		panic("SetBody requires a body parser")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.body = body
	return r
}

// SetBounds replaces the repetition bounds.
func (r *Repeat[I, O]) SetBounds(min, max int) *Repeat[I, O] {
	if min < 0 || (max >= 0 && max < min) {
		panic(fmt.Sprintf("SetBounds %d..%d are inconsistent", min, max))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.min, r.max = min, max
	return r
}

// Bounds returns the current inclusive bounds (max < 0 means unbounded).
func (r *Repeat[I, O]) Bounds() (min, max int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.min, r.max
}

// Name returns the name of this connector.
func (r *Repeat[I, O]) Name() Name {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.name
}

// Metrics returns the metrics registry for this connector.
func (r *Repeat[I, O]) Metrics() *metricz.Registry {
	return r.metrics
}

// Tracer returns the tracer for this connector.
func (r *Repeat[I, O]) Tracer() *tracez.Tracer {
	return r.tracer
}

// OnDone registers a handler called when a repetition finishes.
func (r *Repeat[I, O]) OnDone(handler func(context.Context, RepeatEvent) error) error {
	_, err := r.hooks.Hook(RepeatEventDone, handler)
	return err
}

// Close gracefully shuts down observability components.
func (r *Repeat[I, O]) Close() error {
	if r.tracer != nil {
		r.tracer.Close()
	}
	r.hooks.Close()
	return nil
}

// LengthRepeat parses a count from the input, then runs the body exactly
// that many times. The count is untrusted data: it pre-sizes the accumulator
// only up to the clamp ceiling, so a length field of 2^64-1 allocates
// nothing unusual and the parse fails normally once the actual data runs
// out.
//
//	entries := parsez.LengthRepeat("entries", beU16, entry)
func LengthRepeat[I Cursor, O any](name Name, count Parser[I, uint64], body Parser[I, O]) Rule[I, []O] {
	return Rule[I, []O]{
		name: name,
		fn: func(ctx context.Context, in I) (I, []O, *Fail) {
			cur, n, fail := count.Parse(ctx, in)
			if fail != nil {
				return in, nil, fail.frame(name, in.Len())
			}
			if n > uint64(maxInt) {
				return in, nil, NewCut(cur, KindOverflow).frame(name, in.Len())
			}
			acc := make([]O, 0, clampHint(ctx, name, n))
			rest, _, fail := runRepeat(ctx, cur, name, int(n), int(n), body, func(o O) {
				acc = append(acc, o)
			})
			if fail != nil {
				return in, nil, fail
			}
			return rest, acc, nil
		},
	}
}

// RepeatPairs runs a pair-producing body between min and max times and
// collects the results into a map. Later keys overwrite earlier ones.
func RepeatPairs[I Cursor, K comparable, V any](name Name, min, max int, body Parser[I, Pair[K, V]]) Rule[I, map[K]V] {
	return Rule[I, map[K]V]{
		name: name,
		fn: func(ctx context.Context, in I) (I, map[K]V, *Fail) {
			acc := make(map[K]V, clampHint(ctx, name, uint64(min)))
			rest, _, fail := runRepeat(ctx, in, name, min, max, body, func(p Pair[K, V]) {
				acc[p.First] = p.Second
			})
			if fail != nil {
				return in, nil, fail
			}
			return rest, acc, nil
		},
	}
}

const maxInt = int(^uint(0) >> 1)
