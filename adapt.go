package parsez

import "context"

// Map creates a rule that transforms a successful output. This is the most
// common adapter; use it when the conversion cannot fail.
//
//	digit := parsez.Map("digit_value", parsez.OneOf[parsez.Str, rune]('0', '1'),
//	    func(r rune) int { return int(r - '0') })
func Map[I Cursor, A, B any](name Name, p Parser[I, A], fn func(A) B) Rule[I, B] {
	return Rule[I, B]{
		name: name,
		fn: func(ctx context.Context, in I) (I, B, *Fail) {
			rest, out, fail := p.Parse(ctx, in)
			if fail != nil {
				var zero B
				return in, zero, fail
			}
			return rest, fn(out), nil
		},
	}
}

// TryMap creates a rule that converts a successful output and may fail.
// A conversion failure behaves exactly like the wrapped parser itself having
// failed at its own position: a Backtrack anchored where the wrapped parser
// started, with the conversion error as its cause. Use it for numeric
// conversion, range checks, and other output validation that rejects the
// match.
//
//	number := parsez.TryMap("number", digits, func(s parsez.Str) (int, error) {
//	    return strconv.Atoi(s.String())
//	})
func TryMap[I Cursor, A, B any](name Name, p Parser[I, A], fn func(A) (B, error)) Rule[I, B] {
	return Rule[I, B]{
		name: name,
		fn: func(ctx context.Context, in I) (I, B, *Fail) {
			rest, out, fail := p.Parse(ctx, in)
			if fail != nil {
				var zero B
				return in, zero, fail
			}
			mapped, err := fn(out)
			if err != nil {
				diag := NewError(in.Len(), KindConvert)
				diag.Cause = err
				var zero B
				return in, zero, &Fail{Mode: Backtrack, Err: diag}
			}
			return rest, mapped, nil
		},
	}
}

// Verify creates a rule that rejects a successful output when pred returns
// false. Rejection turns success into Backtrack positioned at the wrapped
// parser's start, not at the post-processing step, so enclosing
// alternatives see it exactly as if the wrapped parser had not matched.
func Verify[I Cursor, O any](name Name, p Parser[I, O], pred func(O) bool) Rule[I, O] {
	return Rule[I, O]{
		name: name,
		fn: func(ctx context.Context, in I) (I, O, *Fail) {
			rest, out, fail := p.Parse(ctx, in)
			if fail != nil {
				var zero O
				return in, zero, fail
			}
			if !pred(out) {
				var zero O
				return in, zero, NewBacktrack(in, KindVerify)
			}
			return rest, out, nil
		},
	}
}

// Value creates a rule that discards a successful output and yields a fixed
// value instead. Useful for mapping keyword literals to enum constants.
func Value[I Cursor, A, B any](name Name, p Parser[I, A], v B) Rule[I, B] {
	return Rule[I, B]{
		name: name,
		fn: func(ctx context.Context, in I) (I, B, *Fail) {
			rest, _, fail := p.Parse(ctx, in)
			if fail != nil {
				var zero B
				return in, zero, fail
			}
			return rest, v, nil
		},
	}
}

// Option is the output of Opt: the wrapped parser's output when it matched,
// with OK reporting presence.
type Option[O any] struct {
	Value O
	OK    bool
}

// Opt makes a parser optional: a Backtrack failure becomes a successful
// empty Option with no consumption. Cut and Incomplete still propagate;
// a committed failure inside an optional element is still a failure, and a
// streaming shortfall must reach the driver.
func Opt[I Cursor, O any](p Parser[I, O]) Rule[I, Option[O]] {
	return Rule[I, Option[O]]{
		name: "opt(" + p.Name() + ")",
		fn: func(ctx context.Context, in I) (I, Option[O], *Fail) {
			rest, out, fail := p.Parse(ctx, in)
			if fail != nil {
				if fail.Mode == Backtrack {
					return in, Option[O]{}, nil
				}
				return in, Option[O]{}, fail
			}
			return rest, Option[O]{Value: out, OK: true}, nil
		},
	}
}

// Peek runs a parser without consuming anything: the output is produced but
// the original cursor is returned.
func Peek[I Cursor, O any](p Parser[I, O]) Rule[I, O] {
	return Rule[I, O]{
		name: "peek(" + p.Name() + ")",
		fn: func(ctx context.Context, in I) (I, O, *Fail) {
			_, out, fail := p.Parse(ctx, in)
			if fail != nil {
				var zero O
				return in, zero, fail
			}
			return in, out, nil
		},
	}
}

// Commit marks a commit point: Backtrack failures from the wrapped parser
// are upgraded to Cut, so enclosing alternatives stop probing sibling
// branches. Place it after a disambiguating prefix has matched; that is how
// a grammar reports `expected ")" after "("` instead of backtracking all the
// way out.
func Commit[I Cursor, O any](p Parser[I, O]) Rule[I, O] {
	return Rule[I, O]{
		name: "commit(" + p.Name() + ")",
		fn: func(ctx context.Context, in I) (I, O, *Fail) {
			rest, out, fail := p.Parse(ctx, in)
			if fail != nil {
				var zero O
				return in, zero, fail.commit()
			}
			return rest, out, nil
		},
	}
}

// Ctx records a named context frame on any failure passing through, giving
// rendered errors their multi-frame trace. Frames are free on the success
// path and cost one prepend per enclosing Ctx on failure.
func Ctx[I Cursor, O any](name Name, p Parser[I, O]) Rule[I, O] {
	return Rule[I, O]{
		name: name,
		fn: func(ctx context.Context, in I) (I, O, *Fail) {
			rest, out, fail := p.Parse(ctx, in)
			if fail != nil {
				var zero O
				return in, zero, fail.frame(name, in.Len())
			}
			return rest, out, nil
		},
	}
}
