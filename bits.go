package parsez

import (
	"context"
	"fmt"
)

// Uint constrains bit-field destinations to unsigned integer types.
type Uint interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint
}

// bitWidth reports the width of V in bits.
func bitWidth[V Uint]() uint {
	w := uint(0)
	for v := ^V(0); v != 0; v >>= 1 {
		w++
	}
	return w
}

// BitCursor views a byte stream at sub-byte granularity. It pairs the
// underlying stream with a bit offset into its first byte, so a BitCursor
// is a value like every other cursor and backtracking works unchanged.
//
// Len reports remaining bits, not bytes; every parser running under BitMode
// sees bit units, including the Needed counts on incomplete failures.
// BitMode and ByteMode convert at the boundary.
type BitCursor[I Stream[I, byte]] struct {
	in  I
	off uint8 // bits consumed from the first byte, 0..7
}

// NewBitCursor wraps a byte stream positioned at its first bit.
func NewBitCursor[I Stream[I, byte]](in I) BitCursor[I] {
	return BitCursor[I]{in: in}
}

// Len returns the number of unread bits.
func (b BitCursor[I]) Len() int { return b.in.Len()*8 - int(b.off) }

// Partial reports whether the underlying stream may grow.
func (b BitCursor[I]) Partial() bool { return b.in.Partial() }

// Inner returns the underlying byte stream, including any partially
// consumed first byte.
func (b BitCursor[I]) Inner() I { return b.in }

// TakeBits reads n bits MSB-first into an unsigned integer. Bits are taken
// from the high end of each byte, so on input {0x12, 0x34} taking 4 bits
// yields 0x1 and a subsequent 8-bit take yields 0x23, spanning the byte
// boundary.
//
// Requesting more bits than V can hold fails with a backtrackable overflow
// in both input models: the request is wrong regardless of how much data
// arrives later, so it must never surface as "feed me more".
func TakeBits[I Stream[I, byte], V Uint](n uint) Rule[BitCursor[I], V] {
	name := Name(fmt.Sprintf("take_bits(%d)", n))
	return Rule[BitCursor[I], V]{
		name: name,
		fn: func(_ context.Context, in BitCursor[I]) (BitCursor[I], V, *Fail) {
			var zero V
			if n == 0 {
				return in, 0, nil
			}
			if n > bitWidth[V]() {
				return in, zero, NewBacktrack(in, KindOverflow).frame(name, in.Len())
			}
			if have := uint(in.Len()); have < n {
				if in.Partial() {
					return in, zero, NewIncomplete(NeededSize(uint64(n-have)))
				}
				return in, zero, NewBacktrack(in, KindEOF).frame(name, in.Len())
			}

			var v V
			cur := in
			remaining := n
			for remaining > 0 {
				rest, b, _ := cur.in.NextToken()
				avail := 8 - uint(cur.off)
				take := remaining
				if take > avail {
					take = avail
				}
				shift := avail - take
				bits := (b >> shift) & byte((uint(1)<<take)-1)
				v = v<<take | V(bits)
				remaining -= take
				if take == avail {
					cur = BitCursor[I]{in: rest}
				} else {
					cur.off += uint8(take)
				}
			}
			return cur, v, nil
		},
	}
}

// TakeBool reads a single bit as a boolean flag.
func TakeBool[I Stream[I, byte]]() Rule[BitCursor[I], bool] {
	bit := TakeBits[I, uint8](1)
	return Rule[BitCursor[I], bool]{
		name: "take_bool",
		fn: func(ctx context.Context, in BitCursor[I]) (BitCursor[I], bool, *Fail) {
			rest, v, fail := bit.Parse(ctx, in)
			if fail != nil {
				return in, false, fail
			}
			return rest, v != 0, nil
		},
	}
}

// BitMode runs a bit-level parser over a byte stream. On success any
// partially consumed trailing byte is dropped so the byte stream resumes
// aligned; protocols with sub-byte flag fields pad to the byte boundary
// and this discards the padding.
//
// Incomplete failures crossing the boundary convert their shortfall from
// bits to bytes, rounding up.
//
//	flags := parsez.BitMode("flags", parsez.Both("fin-op",
//		parsez.TakeBits[parsez.Bytes, uint8](1),
//		parsez.TakeBits[parsez.Bytes, uint8](7),
//	))
func BitMode[I Stream[I, byte], O any](name Name, p Parser[BitCursor[I], O]) Rule[I, O] {
	return Rule[I, O]{
		name: name,
		fn: func(ctx context.Context, in I) (I, O, *Fail) {
			var zero O
			rest, out, fail := p.Parse(ctx, BitCursor[I]{in: in})
			if fail != nil {
				if fail.Mode == Incomplete {
					f := *fail
					f.Needed = fail.Needed.toBytes()
					fail = &f
				}
				return in, zero, fail.frame(name, in.Len())
			}
			stream := rest.in
			if rest.off != 0 {
				stream, _, _ = rest.in.NextToken()
			}
			return stream, out, nil
		},
	}
}

// ByteMode runs a byte-level parser inside a bit-level context. The cursor
// first realigns by dropping any partially consumed byte, then hands the
// underlying stream to the parser.
//
// Incomplete failures convert their shortfall from bytes to bits on the way
// back. A shortfall too large to express in bits is a corrupt or hostile
// length and fails hard rather than asking the caller to buffer it.
func ByteMode[I Stream[I, byte], O any](name Name, p Parser[I, O]) Rule[BitCursor[I], O] {
	return Rule[BitCursor[I], O]{
		name: name,
		fn: func(ctx context.Context, in BitCursor[I]) (BitCursor[I], O, *Fail) {
			var zero O
			stream := in.in
			if in.off != 0 {
				stream, _, _ = stream.NextToken()
			}
			rest, out, fail := p.Parse(ctx, stream)
			if fail != nil {
				if fail.Mode == Incomplete {
					bits, ok := fail.Needed.toBits()
					if !ok {
						return in, zero, NewCut(in, KindOverflow).frame(name, in.Len())
					}
					f := *fail
					f.Needed = bits
					fail = &f
				}
				return in, zero, fail.frame(name, in.Len())
			}
			return BitCursor[I]{in: rest}, out, nil
		},
	}
}
