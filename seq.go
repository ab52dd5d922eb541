package parsez

import "context"

// Pair is the output of two-element sequencing rules.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Both runs two parsers in sequence and returns both outputs. Sequencing is
// fail-fast: the first failure propagates with whatever mode it carried and
// no partial results are returned.
func Both[I Cursor, A, B any](name Name, a Parser[I, A], b Parser[I, B]) Rule[I, Pair[A, B]] {
	return Rule[I, Pair[A, B]]{
		name: name,
		fn: func(ctx context.Context, in I) (I, Pair[A, B], *Fail) {
			cur, first, fail := a.Parse(ctx, in)
			if fail != nil {
				return in, Pair[A, B]{}, fail
			}
			rest, second, fail := b.Parse(ctx, cur)
			if fail != nil {
				return in, Pair[A, B]{}, fail
			}
			return rest, Pair[A, B]{First: first, Second: second}, nil
		},
	}
}

// Preceded runs a prefix parser for its side effect on the cursor, then the
// main parser, returning only the main output.
//
//	signed := parsez.Preceded("signed", parsez.Tag[parsez.Str, rune]("-"), number)
func Preceded[I Cursor, A, B any](name Name, pre Parser[I, A], p Parser[I, B]) Rule[I, B] {
	return Rule[I, B]{
		name: name,
		fn: func(ctx context.Context, in I) (I, B, *Fail) {
			cur, _, fail := pre.Parse(ctx, in)
			if fail != nil {
				var zero B
				return in, zero, fail
			}
			rest, out, fail := p.Parse(ctx, cur)
			if fail != nil {
				var zero B
				return in, zero, fail
			}
			return rest, out, nil
		},
	}
}

// Terminated runs the main parser, then a suffix parser for its side effect
// on the cursor, returning only the main output.
func Terminated[I Cursor, A, B any](name Name, p Parser[I, A], post Parser[I, B]) Rule[I, A] {
	return Rule[I, A]{
		name: name,
		fn: func(ctx context.Context, in I) (I, A, *Fail) {
			cur, out, fail := p.Parse(ctx, in)
			if fail != nil {
				var zero A
				return in, zero, fail
			}
			rest, _, fail := post.Parse(ctx, cur)
			if fail != nil {
				var zero A
				return in, zero, fail
			}
			return rest, out, nil
		},
	}
}

// Delimited runs open, the main parser, then close, returning only the main
// output. The canonical bracket rule.
func Delimited[I Cursor, A, B, C any](name Name, open Parser[I, A], p Parser[I, B], cls Parser[I, C]) Rule[I, B] {
	return Rule[I, B]{
		name: name,
		fn: func(ctx context.Context, in I) (I, B, *Fail) {
			cur, _, fail := open.Parse(ctx, in)
			if fail != nil {
				var zero B
				return in, zero, fail
			}
			cur, out, fail := p.Parse(ctx, cur)
			if fail != nil {
				var zero B
				return in, zero, fail
			}
			rest, _, fail := cls.Parse(ctx, cur)
			if fail != nil {
				var zero B
				return in, zero, fail
			}
			return rest, out, nil
		},
	}
}

// SeparatedPair runs two parsers around a separator, returning both outputs.
//
//	kv := parsez.SeparatedPair("kv", key, parsez.Tag[parsez.Str, rune]("="), value)
func SeparatedPair[I Cursor, A, B, C any](name Name, a Parser[I, A], sep Parser[I, B], c Parser[I, C]) Rule[I, Pair[A, C]] {
	return Rule[I, Pair[A, C]]{
		name: name,
		fn: func(ctx context.Context, in I) (I, Pair[A, C], *Fail) {
			cur, first, fail := a.Parse(ctx, in)
			if fail != nil {
				return in, Pair[A, C]{}, fail
			}
			cur, _, fail = sep.Parse(ctx, cur)
			if fail != nil {
				return in, Pair[A, C]{}, fail
			}
			rest, second, fail := c.Parse(ctx, cur)
			if fail != nil {
				return in, Pair[A, C]{}, fail
			}
			return rest, Pair[A, C]{First: first, Second: second}, nil
		},
	}
}
