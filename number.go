package parsez

import (
	"context"
	"fmt"
)

// BeUint reads n bytes as a big-endian unsigned integer. The usual aliases
// are spelled at the call site:
//
//	length := parsez.BeUint[parsez.Bytes, uint16](2)
//	serial := parsez.BeUint[parsez.Bytes, uint64](8)
//
// Requesting more bytes than V can hold fails with a backtrackable overflow.
// Short input follows the cursor's input model: Incomplete with an exact
// byte shortfall when the cursor is partial, end-of-input otherwise.
func BeUint[I Stream[I, byte], V Uint](n int) Rule[I, V] {
	return uintRule[I, V]("be_uint", n, func(v V, b byte) V {
		return V(uint64(v)<<8) | V(b)
	})
}

// LeUint reads n bytes as a little-endian unsigned integer.
func LeUint[I Stream[I, byte], V Uint](n int) Rule[I, V] {
	name := Name(fmt.Sprintf("le_uint(%d)", n))
	return Rule[I, V]{
		name: name,
		fn: func(_ context.Context, in I) (I, V, *Fail) {
			var zero V
			if fail := checkUintWidth[V](in, name, n); fail != nil {
				return in, zero, fail
			}
			var v V
			cur := in
			for i := 0; i < n; i++ {
				rest, b, _ := cur.NextToken()
				v |= V(b) << (8 * i)
				cur = rest
			}
			return cur, v, nil
		},
	}
}

func uintRule[I Stream[I, byte], V Uint](kind string, n int, step func(V, byte) V) Rule[I, V] {
	name := Name(fmt.Sprintf("%s(%d)", kind, n))
	return Rule[I, V]{
		name: name,
		fn: func(_ context.Context, in I) (I, V, *Fail) {
			var zero V
			if fail := checkUintWidth[V](in, name, n); fail != nil {
				return in, zero, fail
			}
			var v V
			cur := in
			for i := 0; i < n; i++ {
				rest, b, _ := cur.NextToken()
				v = step(v, b)
				cur = rest
			}
			return cur, v, nil
		},
	}
}

func checkUintWidth[V Uint, I Stream[I, byte]](in I, name Name, n int) *Fail {
	if n <= 0 || uint(n)*8 > bitWidth[V]() {
		return NewBacktrack(in, KindOverflow).frame(name, in.Len())
	}
	if have := in.Len(); have < n {
		if in.Partial() {
			return NewIncomplete(NeededSize(uint64(n - have)))
		}
		return NewBacktrack(in, KindEOF).frame(name, in.Len())
	}
	return nil
}
