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

// Observability constants for the Alt connector.
const (
	// Metrics.
	AltParsesTotal    = metricz.Key("alt.parses.total")
	AltMatchesTotal   = metricz.Key("alt.matches.total")
	AltExhaustedTotal = metricz.Key("alt.exhausted.total")
	AltCutsTotal      = metricz.Key("alt.cuts.total")

	// Spans.
	AltParseSpan  = tracez.Key("alt.parse")
	AltBranchSpan = tracez.Key("alt.branch")

	// Tags.
	AltTagBranchCount = tracez.Tag("alt.branch_count")
	AltTagBranch      = tracez.Tag("alt.branch")
	AltTagBranchName  = tracez.Tag("alt.branch_name")
	AltTagMatched     = tracez.Tag("alt.matched")
	AltTagError       = tracez.Tag("alt.error")

	// Hook event keys.
	AltEventBranchTried = hookz.Key("alt.branch_tried")
	AltEventExhausted   = hookz.Key("alt.exhausted")
)

// AltEvent represents an alternation event. It is emitted via hookz as each
// branch is tried and when the whole alternative set is exhausted, providing
// visibility into which grammar paths are actually exercised.
type AltEvent struct {
	Name       Name      // Connector name
	BranchName Name      // Name of the branch parser
	Branch     int       // Branch index (0-based)
	Matched    bool      // Whether the branch matched
	Mode       Mode      // Failure mode when the branch did not match
	Error      error     // Branch error (if failed)
	Remaining  int       // Remaining input length at entry
	Timestamp  time.Time // When the event occurred
}

// Alt tries each branch in order against the same starting cursor and
// returns the first match. The cursor is threaded by value, so every branch
// sees the identical starting position; cursors are a pointer+length copy,
// which is what makes this backtracking cheap.
//
// Failure handling per branch:
//   - Backtrack: merge the error with earlier branch errors and try the
//     next branch.
//   - Cut: the branch committed (typically after a disambiguating prefix)
//     and then failed: stop immediately and propagate without trying
//     sibling branches.
//   - Incomplete: the input is a streaming prefix and no decision can be
//     made: stop immediately so the driver can fetch more data.
//
// If every branch exhausts, the merged Backtrack error is returned. The
// merge keeps the error that consumed the most input, ties going to the
// earlier branch.
//
// Branch order is significant: given branches that both match a prefix, the
// first wins. Put longer literals before their own prefixes.
//
// # Observability
//
// Metrics:
//   - alt.parses.total: Counter of alternation attempts
//   - alt.matches.total: Counter of successful matches
//   - alt.exhausted.total: Counter of full exhaustions
//   - alt.cuts.total: Counter of committed failures propagated
//
// Traces:
//   - alt.parse: Parent span for the whole alternation
//   - alt.branch: Child span per branch tried
//
// Events (via hooks):
//   - alt.branch_tried: Fired after each branch attempt
//   - alt.exhausted: Fired when no branch matched
type Alt[I Cursor, O any] struct {
	name     Name
	branches []Parser[I, O]
	mu       sync.RWMutex
	metrics  *metricz.Registry
	tracer   *tracez.Tracer
	hooks    *hookz.Hooks[AltEvent]
}

// NewAlt creates a new Alt connector that tries branches in order.
// At least one branch must be provided.
//
//	boolean := parsez.NewAlt[parsez.Str, bool]("boolean",
//	    parsez.Value("true", parsez.Tag[parsez.Str, rune]("true"), true),
//	    parsez.Value("false", parsez.Tag[parsez.Str, rune]("false"), false),
//	)
func NewAlt[I Cursor, O any](name Name, branches ...Parser[I, O]) *Alt[I, O] {
	if len(branches) == 0 {
		panic("NewAlt requires at least one branch")
	}

	metrics := metricz.New()
	metrics.Counter(AltParsesTotal)
	metrics.Counter(AltMatchesTotal)
	metrics.Counter(AltExhaustedTotal)
	metrics.Counter(AltCutsTotal)

	return &Alt[I, O]{
		name:     name,
		branches: append([]Parser[I, O](nil), branches...),
		metrics:  metrics,
		tracer:   tracez.New(),
		hooks:    hookz.New[AltEvent](),
	}
}

// Parse implements the Parser interface.
func (a *Alt[I, O]) Parse(ctx context.Context, in I) (I, O, *Fail) {
	a.mu.RLock()
	branches := make([]Parser[I, O], len(a.branches))
	copy(branches, a.branches)
	a.mu.RUnlock()

	if ctx == nil {
		ctx = context.Background()
	}

	a.metrics.Counter(AltParsesTotal).Inc()

	ctx, span := a.tracer.StartSpan(ctx, AltParseSpan)
	span.SetTag(AltTagBranchCount, fmt.Sprintf("%d", len(branches)))
	defer span.Finish()

	name := string(a.name)
	var merged *Fail

	for i, branch := range branches {
		capitan.Emit(ctx, SignalAltBranch,
			FieldName.Field(name),
			FieldBranch.Field(i),
			FieldBranchName.Field(string(branch.Name())),
			FieldRemaining.Field(in.Len()),
		)

		branchCtx, branchSpan := a.tracer.StartSpan(ctx, AltBranchSpan)
		branchSpan.SetTag(AltTagBranch, fmt.Sprintf("%d", i))
		branchSpan.SetTag(AltTagBranchName, string(branch.Name()))

		rest, out, fail := branch.Parse(branchCtx, in)
		branchSpan.Finish()

		event := AltEvent{
			Name:       a.name,
			BranchName: branch.Name(),
			Branch:     i,
			Matched:    fail == nil,
			Remaining:  in.Len(),
			Timestamp:  time.Now(),
		}
		if fail != nil {
			event.Mode = fail.Mode
			event.Error = fail
		}
		_ = a.hooks.Emit(ctx, AltEventBranchTried, event) //nolint:errcheck

		if fail == nil {
			span.SetTag(AltTagMatched, "true")
			a.metrics.Counter(AltMatchesTotal).Inc()
			return rest, out, nil
		}

		if fail.Mode != Backtrack {
			// The branch committed, or needs more streaming data.
			// Either way, sibling branches must not be probed.
			span.SetTag(AltTagMatched, "false")
			span.SetTag(AltTagError, fail.Error())
			if fail.Mode == Cut {
				a.metrics.Counter(AltCutsTotal).Inc()
				capitan.Emit(ctx, SignalAltCut,
					FieldName.Field(name),
					FieldBranch.Field(i),
					FieldError.Field(fail.Error()),
				)
			}
			var zero O
			return in, zero, fail.frame(a.name, in.Len())
		}

		merged = orFail(merged, fail)
	}

	span.SetTag(AltTagMatched, "false")
	a.metrics.Counter(AltExhaustedTotal).Inc()
	capitan.Emit(ctx, SignalAltExhausted,
		FieldName.Field(name),
		FieldRemaining.Field(in.Len()),
		FieldError.Field(merged.Error()),
	)
	_ = a.hooks.Emit(ctx, AltEventExhausted, AltEvent{ //nolint:errcheck
		Name:      a.name,
		Mode:      Backtrack,
		Error:     merged,
		Remaining: in.Len(),
		Timestamp: time.Now(),
	})

	var zero O
	return in, zero, merged.frame(a.name, in.Len())
}

// Add appends branches to the end of the alternative chain.
func (a *Alt[I, O]) Add(branches ...Parser[I, O]) *Alt[I, O] {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.branches = append(a.branches, branches...)
	return a
}

// SetBranches replaces all branches with the provided ones.
func (a *Alt[I, O]) SetBranches(branches ...Parser[I, O]) *Alt[I, O] {
	if len(branches) == 0 {
		panic("SetBranches requires at least one branch")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.branches = make([]Parser[I, O], len(branches))
	copy(a.branches, branches)
	return a
}

// Len returns the number of branches.
func (a *Alt[I, O]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.branches)
}

// Names returns the names of all branches in order.
func (a *Alt[I, O]) Names() []Name {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]Name, len(a.branches))
	for i, b := range a.branches {
		names[i] = b.Name()
	}
	return names
}

// Name returns the name of this connector.
func (a *Alt[I, O]) Name() Name {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.name
}

// Metrics returns the metrics registry for this connector.
func (a *Alt[I, O]) Metrics() *metricz.Registry {
	return a.metrics
}

// Tracer returns the tracer for this connector.
func (a *Alt[I, O]) Tracer() *tracez.Tracer {
	return a.tracer
}

// OnBranchTried registers a handler called after each branch attempt.
func (a *Alt[I, O]) OnBranchTried(handler func(context.Context, AltEvent) error) error {
	_, err := a.hooks.Hook(AltEventBranchTried, handler)
	return err
}

// OnExhausted registers a handler called when no branch matched.
func (a *Alt[I, O]) OnExhausted(handler func(context.Context, AltEvent) error) error {
	_, err := a.hooks.Hook(AltEventExhausted, handler)
	return err
}

// Close gracefully shuts down observability components.
func (a *Alt[I, O]) Close() error {
	if a.tracer != nil {
		a.tracer.Close()
	}
	a.hooks.Close()
	return nil
}
