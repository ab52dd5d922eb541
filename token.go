package parsez

import (
	"context"
	"fmt"
)

// Tag matches an exact literal at the front of the cursor and returns the
// matched slice. Over a Partial cursor, running out of input while the
// literal still matches reports the exact byte shortfall as Incomplete.
//
//	get := parsez.Tag[parsez.Bytes, byte]("GET ")
func Tag[I Stream[I, T], T Token](lit string) Rule[I, I] {
	name := Name(fmt.Sprintf("tag(%q)", lit))
	return Rule[I, I]{
		name: name,
		fn: func(_ context.Context, in I) (I, I, *Fail) {
			tokens, cmp := in.Compare(lit)
			switch cmp {
			case CmpEqual:
				rest, slice := in.NextSlice(tokens)
				return rest, slice, nil
			case CmpIncomplete:
				if in.Partial() {
					var zero I
					return in, zero, NewIncomplete(NeededSize(uint64(len(lit) - in.Len())))
				}
			}
			var zero I
			return in, zero, NewBacktrack(in, KindTag)
		},
	}
}

// Take consumes exactly n tokens and returns them as a slice. Over a Partial
// cursor a shortfall is reported as Incomplete with the exact missing token
// count; over a complete cursor it is a Backtrack end-of-input failure,
// never Incomplete.
func Take[I Stream[I, T], T Token](n int) Rule[I, I] {
	name := Name(fmt.Sprintf("take(%d)", n))
	return Rule[I, I]{
		name: name,
		fn: func(_ context.Context, in I) (I, I, *Fail) {
			if _, short := in.OffsetAt(n); short > 0 {
				var zero I
				if in.Partial() {
					return in, zero, NewIncomplete(NeededSize(uint64(short)))
				}
				return in, zero, NewBacktrack(in, KindSlice)
			}
			rest, slice := in.NextSlice(n)
			return rest, slice, nil
		},
	}
}

// TakeWhile consumes tokens while pred holds, within min..max occurrences
// (max < 0 means unbounded), and returns the consumed slice.
//
// This primitive carries the single most important semantic fork in the
// library, implemented once here for every scanning rule: when the predicate
// never becomes false before the cursor ends, a Partial cursor cannot tell
// whether the match continues into unavailable data and reports
// Incomplete(NeededUnknown), while a complete cursor treats end-of-buffer as
// a valid match boundary.
func TakeWhile[I Stream[I, T], T Token](min, max int, pred func(T) bool) Rule[I, I] {
	name := Name(fmt.Sprintf("take_while(%d..)", min))
	if max >= 0 {
		name = Name(fmt.Sprintf("take_while(%d..%d)", min, max))
	}
	return Rule[I, I]{
		name: name,
		fn: func(_ context.Context, in I) (I, I, *Fail) {
			return scanWhile(in, min, max, pred)
		},
	}
}

// TakeTill consumes tokens until pred holds, requiring at least min
// occurrences, and returns the consumed slice. The terminator itself is not
// consumed.
func TakeTill[I Stream[I, T], T Token](min int, pred func(T) bool) Rule[I, I] {
	name := Name(fmt.Sprintf("take_till(%d..)", min))
	return Rule[I, I]{
		name: name,
		fn: func(_ context.Context, in I) (I, I, *Fail) {
			return scanWhile(in, min, -1, func(t T) bool { return !pred(t) })
		},
	}
}

// scanWhile is the shared scanning routine behind TakeWhile and TakeTill.
// The streaming/complete fork lives here and nowhere else.
func scanWhile[I Stream[I, T], T Token](in I, min, max int, pred func(T) bool) (I, I, *Fail) {
	count := 0
	cur := in
	for max < 0 || count < max {
		rest, tok, ok := cur.NextToken()
		if !ok {
			// Ran out of available input while the bound still allowed
			// more matches. A streaming prefix cannot rule out that the
			// match continues.
			if in.Partial() {
				var zero I
				return in, zero, NewIncomplete(NeededUnknown)
			}
			break
		}
		if !pred(tok) {
			break
		}
		cur = rest
		count++
	}
	if count < min {
		var zero I
		return in, zero, NewBacktrack(in, KindToken)
	}
	rest, slice := in.NextSlice(count)
	return rest, slice, nil
}

// One matches a single expected token.
func One[I Stream[I, T], T Token](want T) Rule[I, T] {
	name := Name(fmt.Sprintf("one(%q)", ToRune(want)))
	return Rule[I, T]{
		name: name,
		fn: func(_ context.Context, in I) (I, T, *Fail) {
			rest, tok, ok := in.NextToken()
			if !ok {
				var zero T
				if in.Partial() {
					return in, zero, NewIncomplete(NeededSize(1))
				}
				return in, zero, NewBacktrack(in, KindEOF)
			}
			if tok != want {
				var zero T
				return in, zero, NewBacktrack(in, KindToken)
			}
			return rest, tok, nil
		},
	}
}

// OneOf matches any single token from the given set.
func OneOf[I Stream[I, T], T Token](set ...T) Rule[I, T] {
	return Rule[I, T]{
		name: "one_of",
		fn: func(_ context.Context, in I) (I, T, *Fail) {
			rest, tok, ok := in.NextToken()
			if !ok {
				var zero T
				if in.Partial() {
					return in, zero, NewIncomplete(NeededSize(1))
				}
				return in, zero, NewBacktrack(in, KindEOF)
			}
			for _, want := range set {
				if tok == want {
					return rest, tok, nil
				}
			}
			var zero T
			return in, zero, NewBacktrack(in, KindToken)
		},
	}
}

// Any matches any single token.
func Any[I Stream[I, T], T Token]() Rule[I, T] {
	return Rule[I, T]{
		name: "any",
		fn: func(_ context.Context, in I) (I, T, *Fail) {
			rest, tok, ok := in.NextToken()
			if !ok {
				var zero T
				if in.Partial() {
					return in, zero, NewIncomplete(NeededSize(1))
				}
				return in, zero, NewBacktrack(in, KindEOF)
			}
			return rest, tok, nil
		},
	}
}

// End succeeds only at the end of input, producing the empty slice. Over a
// Partial cursor an empty buffer is not yet a proven end, so End reports
// Incomplete instead.
func End[I Stream[I, T], T Token]() Rule[I, I] {
	return Rule[I, I]{
		name: "end",
		fn: func(_ context.Context, in I) (I, I, *Fail) {
			if in.Len() != 0 {
				var zero I
				return in, zero, NewBacktrack(in, KindEOF)
			}
			if in.Partial() {
				var zero I
				return in, zero, NewIncomplete(NeededUnknown)
			}
			rest, slice := in.NextSlice(0)
			return rest, slice, nil
		},
	}
}
