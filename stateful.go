package parsez

import "context"

// Stateful carries an arbitrary user value alongside a cursor, so parsers
// can share context (counters, arenas, symbol tables) without global
// state. S is usually a pointer type: every cursor copy made while threading
// through rules shares the same underlying state, following a single-owner
// discipline since a parse is strictly single-threaded.
type Stateful[I Stream[I, T], T Token, S any] struct {
	in    I
	state S
}

// NewStateful pairs a cursor with user state.
func NewStateful[I Stream[I, T], T Token, S any](in I, state S) Stateful[I, T, S] {
	return Stateful[I, T, S]{in: in, state: state}
}

// Inner returns the wrapped cursor.
func (s Stateful[I, T, S]) Inner() I { return s.in }

// State returns the threaded user state.
func (s Stateful[I, T, S]) State() S { return s.state }

// Len returns the remaining length of the inner cursor.
func (s Stateful[I, T, S]) Len() int { return s.in.Len() }

// Partial delegates to the inner cursor.
func (s Stateful[I, T, S]) Partial() bool { return s.in.Partial() }

// NextToken splits off one token; the state rides along.
func (s Stateful[I, T, S]) NextToken() (Stateful[I, T, S], T, bool) {
	rest, tok, ok := s.in.NextToken()
	return Stateful[I, T, S]{in: rest, state: s.state}, tok, ok
}

// NextSlice splits off n tokens; both halves share the state.
func (s Stateful[I, T, S]) NextSlice(n int) (Stateful[I, T, S], Stateful[I, T, S]) {
	rest, slice := s.in.NextSlice(n)
	return Stateful[I, T, S]{in: rest, state: s.state},
		Stateful[I, T, S]{in: slice, state: s.state}
}

// OffsetFor delegates to the inner cursor.
func (s Stateful[I, T, S]) OffsetFor(pred func(T) bool) (int, bool) {
	return s.in.OffsetFor(pred)
}

// OffsetAt delegates to the inner cursor.
func (s Stateful[I, T, S]) OffsetAt(tokens int) (int, int) {
	return s.in.OffsetAt(tokens)
}

// Compare delegates to the inner cursor.
func (s Stateful[I, T, S]) Compare(lit string) (int, Comparison) {
	return s.in.Compare(lit)
}

// DepthGuard is the capability Guard requires of threaded state: a counter
// that admits or refuses another level of recursion.
type DepthGuard interface {
	// Enter records one more level and reports whether it is within budget.
	Enter() bool
	// Exit unwinds one level.
	Exit()
}

// Depth is a recursion-depth counter for Stateful parsers. Recursion depth
// in a combinator parser equals grammar nesting depth at the call-stack
// level, so adversarial input (ten thousand open parentheses) can otherwise
// grow the stack without bound. Thread a *Depth through Stateful and wrap
// recursive rules in Guard to cap it.
type Depth struct {
	depth int
	limit int
}

// NewDepth returns a guard refusing recursion deeper than limit.
func NewDepth(limit int) *Depth {
	return &Depth{limit: limit}
}

// Enter implements DepthGuard.
func (d *Depth) Enter() bool {
	d.depth++
	return d.depth <= d.limit
}

// Exit implements DepthGuard.
func (d *Depth) Exit() {
	d.depth--
}

// Guard wraps a parser over Stateful input so each invocation consumes one
// level of the threaded depth budget. Exceeding the budget is a Cut: an
// enclosing Alt must not probe other branches of a grammar that has already
// recursed past its limit.
func Guard[I Stream[I, T], T Token, S DepthGuard, O any](p Parser[Stateful[I, T, S], O]) Rule[Stateful[I, T, S], O] {
	return Rule[Stateful[I, T, S], O]{
		name: "guard(" + p.Name() + ")",
		fn: func(ctx context.Context, in Stateful[I, T, S]) (Stateful[I, T, S], O, *Fail) {
			guard := in.State()
			if !guard.Enter() {
				guard.Exit()
				var zero O
				return in, zero, NewCut(in, KindDepth)
			}
			defer guard.Exit()
			return p.Parse(ctx, in)
		},
	}
}
