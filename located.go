package parsez

// Located decorates a cursor with its absolute byte offset from the start of
// the original input, so errors and extracted slices can be anchored to a
// position on demand. Slices taken from a Located cursor are Located at
// their own start offset, which is what makes span reporting compose.
type Located[I Stream[I, T], T Token] struct {
	in  I
	off int
}

// NewLocated wraps a cursor at offset zero.
func NewLocated[I Stream[I, T], T Token](in I) Located[I, T] {
	return Located[I, T]{in: in}
}

// Inner returns the wrapped cursor.
func (l Located[I, T]) Inner() I { return l.in }

// Offset returns the absolute byte offset of this cursor within the original
// input.
func (l Located[I, T]) Offset() int { return l.off }

// Span returns the [start, end) byte range this cursor covers.
func (l Located[I, T]) Span() (start, end int) {
	return l.off, l.off + l.in.Len()
}

// Len returns the remaining length of the inner cursor.
func (l Located[I, T]) Len() int { return l.in.Len() }

// Partial delegates to the inner cursor.
func (l Located[I, T]) Partial() bool { return l.in.Partial() }

// NextToken splits off one token, advancing the tracked offset by the
// token's byte width.
func (l Located[I, T]) NextToken() (Located[I, T], T, bool) {
	rest, tok, ok := l.in.NextToken()
	if !ok {
		return l, tok, false
	}
	return Located[I, T]{in: rest, off: l.off + l.in.Len() - rest.Len()}, tok, true
}

// NextSlice splits off n tokens. The returned slice carries the offset where
// it starts; the rest carries the offset just past it.
func (l Located[I, T]) NextSlice(n int) (Located[I, T], Located[I, T]) {
	rest, slice := l.in.NextSlice(n)
	consumed := l.in.Len() - rest.Len()
	return Located[I, T]{in: rest, off: l.off + consumed},
		Located[I, T]{in: slice, off: l.off}
}

// OffsetFor delegates to the inner cursor; the returned offset is relative
// to this cursor, as on every other cursor type. Add Offset for an absolute
// position.
func (l Located[I, T]) OffsetFor(pred func(T) bool) (int, bool) {
	return l.in.OffsetFor(pred)
}

// OffsetAt delegates to the inner cursor.
func (l Located[I, T]) OffsetAt(tokens int) (int, int) {
	return l.in.OffsetAt(tokens)
}

// Compare delegates to the inner cursor.
func (l Located[I, T]) Compare(lit string) (int, Comparison) {
	return l.in.Compare(lit)
}
