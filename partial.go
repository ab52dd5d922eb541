package parsez

// Partial marks a cursor as representing a prefix of a larger, not-yet-fully
// available buffer. It changes only the interpretation of "no more matching
// tokens": primitives that run off the end of a Partial cursor return
// Incomplete(Needed) instead of treating the buffer end as a definitive
// boundary. The slicing logic itself is untouched: every Stream operation
// delegates to the inner cursor and rewraps the result.
//
// Streaming is selected by this type, not by a runtime flag, so the complete
// cursors have no code path that can construct an Incomplete outcome at all.
//
// A parser that returns Incomplete is not paused: the caller re-invokes the
// whole parse against the start of the next, larger buffer.
type Partial[I Stream[I, T], T Token] struct {
	in I
}

// NewPartial wraps any stream cursor as a streaming prefix.
func NewPartial[I Stream[I, T], T Token](in I) Partial[I, T] {
	return Partial[I, T]{in: in}
}

// NewPartialBytes wraps a byte buffer as a streaming prefix cursor.
func NewPartialBytes(data []byte) Partial[Bytes, byte] {
	return Partial[Bytes, byte]{in: NewBytes(data)}
}

// NewPartialStr wraps a string as a streaming prefix cursor.
func NewPartialStr(s string) Partial[Str, rune] {
	return Partial[Str, rune]{in: NewStr(s)}
}

// Inner returns the wrapped cursor.
func (p Partial[I, T]) Inner() I { return p.in }

// Len returns the remaining length of the available prefix.
func (p Partial[I, T]) Len() int { return p.in.Len() }

// Partial always reports true.
func (Partial[I, T]) Partial() bool { return true }

// NextToken splits off one token of the available prefix.
func (p Partial[I, T]) NextToken() (Partial[I, T], T, bool) {
	rest, tok, ok := p.in.NextToken()
	return Partial[I, T]{in: rest}, tok, ok
}

// NextSlice splits off n tokens. Slices of a streaming cursor remain
// streaming: a scan over the slice still cannot assume it saw the true end.
func (p Partial[I, T]) NextSlice(n int) (Partial[I, T], Partial[I, T]) {
	rest, slice := p.in.NextSlice(n)
	return Partial[I, T]{in: rest}, Partial[I, T]{in: slice}
}

// OffsetFor delegates to the inner cursor. A "not found" result is
// reinterpreted one level up, by whichever primitive performed the scan.
func (p Partial[I, T]) OffsetFor(pred func(T) bool) (int, bool) {
	return p.in.OffsetFor(pred)
}

// OffsetAt delegates to the inner cursor; a shortfall here becomes an
// Incomplete at the primitive that requested the conversion.
func (p Partial[I, T]) OffsetAt(tokens int) (int, int) {
	return p.in.OffsetAt(tokens)
}

// Compare delegates to the inner cursor.
func (p Partial[I, T]) Compare(lit string) (int, Comparison) {
	return p.in.Compare(lit)
}
