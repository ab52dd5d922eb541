package parsez

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// Token is the constraint on the smallest unit a cursor yields: bytes for
// binary input, runes for text.
type Token interface {
	~uint8 | ~int32
}

// Cursor is the minimal capability every parser input must provide.
// Connectors only ever need the remaining length (for progress accounting and
// error positions) and the streaming marker; the full Stream capability is
// required only by leaf recognizers that actually consume tokens.
type Cursor interface {
	// Len returns the remaining length in offset units. For the built-in
	// cursors this is bytes (even for Str, whose tokens are runes); for
	// BitCursor it is bits. Len is O(1) on every built-in cursor.
	Len() int

	// Partial reports whether this cursor represents a prefix of a larger,
	// not-yet-available buffer. Primitives reinterpret "ran out of input"
	// as Incomplete when Partial is true.
	Partial() bool
}

// Stream is the full cursor capability set. A downstream user plugs in a new
// input type by implementing Stream over it; all rules and connectors are
// generic over the implementation.
//
// The type parameter I is the implementing type itself, so splitting
// operations return cursors of the same concrete type and slices are
// themselves cursor-shaped.
type Stream[I any, T Token] interface {
	Cursor

	// NextToken splits off exactly one token, or reports false if the
	// cursor is empty.
	NextToken() (rest I, tok T, ok bool)

	// NextSlice splits off a slice of n tokens (not necessarily n bytes;
	// for text, n runes may span variable byte widths). The count must be
	// a valid, boundary-respecting offset into this cursor; violating the
	// precondition is a programming error and panics.
	NextSlice(n int) (rest I, slice I)

	// OffsetFor scans forward and returns the byte offset of the first
	// token satisfying pred, without consuming anything.
	OffsetFor(pred func(T) bool) (offset int, found bool)

	// OffsetAt converts a token count into a byte offset. If the cursor
	// holds fewer tokens, shortfall reports how many are missing; this is
	// how streaming awareness threads through length-based rules.
	OffsetAt(tokens int) (offset int, shortfall int)

	// Compare matches lit against the front of the cursor. On CmpEqual,
	// tokens reports how many tokens lit spans so the caller can split
	// them off with NextSlice.
	Compare(lit string) (tokens int, result Comparison)
}

// Comparison is the outcome of Stream.Compare.
type Comparison uint8

const (
	// CmpEqual means the literal is a prefix of the cursor.
	CmpEqual Comparison = iota
	// CmpIncomplete means the cursor ran out while still matching: the
	// cursor is a proper prefix of the literal.
	CmpIncomplete
	// CmpMismatch means the literal cannot match at this position.
	CmpMismatch
)

// Needed describes how much more data a streaming parse requires before a
// decision can be made: either an unknown amount or an exact count. The unit
// is bytes at the byte level and bits inside BitMode; the mode adapters
// convert at the boundary.
type Needed uint64

// NeededUnknown means more data is required but the amount cannot be
// determined (e.g. a predicate scan that never terminated).
const NeededUnknown Needed = 0

// NeededSize returns an exact shortfall. A zero count collapses to
// NeededUnknown since "need zero more" is not a meaningful demand.
func NeededSize(n uint64) Needed {
	return Needed(n)
}

// Known reports whether the shortfall is an exact count.
func (n Needed) Known() bool { return n != NeededUnknown }

// Size returns the exact count, or 0 for NeededUnknown.
func (n Needed) Size() uint64 { return uint64(n) }

// String renders the shortfall for error messages.
func (n Needed) String() string {
	if n == NeededUnknown {
		return "unknown amount"
	}
	return fmt.Sprintf("%d more", uint64(n))
}

// toBytes converts a bit-unit shortfall into bytes, rounding up and
// saturating rather than overflowing.
func (n Needed) toBytes() Needed {
	if n == NeededUnknown {
		return NeededUnknown
	}
	v := uint64(n)
	if v > math.MaxUint64-7 {
		return Needed(math.MaxUint64/8 + 1)
	}
	return Needed((v + 7) / 8)
}

// toBits converts a byte-unit shortfall into bits with a checked multiply.
// ok is false when the count is too large to represent in bits.
func (n Needed) toBits() (Needed, bool) {
	if n == NeededUnknown {
		return NeededUnknown, true
	}
	if uint64(n) > math.MaxUint64/8 {
		return 0, false
	}
	return n * 8, true
}

// Bytes is the complete (non-streaming) cursor over a byte buffer.
// It is a view: copying a Bytes copies a slice header, never the data, and
// the cursor borrows the underlying buffer for the duration of the parse.
type Bytes struct {
	data []byte
}

// NewBytes wraps a byte buffer as a complete cursor. End of buffer is a true
// end of input; primitives over it can never produce Incomplete.
func NewBytes(data []byte) Bytes {
	return Bytes{data: data}
}

// Len returns the remaining byte count.
func (b Bytes) Len() int { return len(b.data) }

// Partial always reports false: a Bytes cursor holds the whole input.
func (Bytes) Partial() bool { return false }

// NextToken splits off one byte.
func (b Bytes) NextToken() (Bytes, byte, bool) {
	if len(b.data) == 0 {
		return b, 0, false
	}
	return Bytes{data: b.data[1:]}, b.data[0], true
}

// NextSlice splits off n bytes. n must be within bounds; violating the
// precondition panics.
func (b Bytes) NextSlice(n int) (Bytes, Bytes) {
	if n < 0 || n > len(b.data) {
		panic(fmt.Sprintf("parsez: NextSlice(%d) out of bounds for %d remaining bytes", n, len(b.data)))
	}
	return Bytes{data: b.data[n:]}, Bytes{data: b.data[:n]}
}

// OffsetFor returns the offset of the first byte satisfying pred.
func (b Bytes) OffsetFor(pred func(byte) bool) (int, bool) {
	for i, c := range b.data {
		if pred(c) {
			return i, true
		}
	}
	return -1, false
}

// OffsetAt converts a token count to a byte offset; for Bytes the two units
// coincide.
func (b Bytes) OffsetAt(tokens int) (int, int) {
	if tokens > len(b.data) {
		return -1, tokens - len(b.data)
	}
	return tokens, 0
}

// Compare matches lit against the front of the buffer.
func (b Bytes) Compare(lit string) (int, Comparison) {
	n := len(lit)
	if len(b.data) < n {
		n = len(b.data)
	}
	for i := 0; i < n; i++ {
		if b.data[i] != lit[i] {
			return 0, CmpMismatch
		}
	}
	if len(b.data) < len(lit) {
		return 0, CmpIncomplete
	}
	return len(lit), CmpEqual
}

// Bytes returns the remaining data. The slice aliases the original buffer;
// callers retaining it past the parse must copy.
func (b Bytes) Bytes() []byte { return b.data }

// String renders the remaining data as a string.
func (b Bytes) String() string { return string(b.data) }

// Str is the complete (non-streaming) cursor over a string. Tokens are
// Unicode scalar values; every split respects UTF-8 boundaries, so a slice
// can never divide a multi-byte rune. Invalid UTF-8 is yielded byte-wise as
// utf8.RuneError, matching the behavior of ranging over a Go string.
type Str struct {
	s string
}

// NewStr wraps a string as a complete cursor.
func NewStr(s string) Str {
	return Str{s: s}
}

// Len returns the remaining length in bytes. Token (rune) counts convert to
// byte offsets through OffsetAt.
func (s Str) Len() int { return len(s.s) }

// Partial always reports false: a Str cursor holds the whole input.
func (Str) Partial() bool { return false }

// NextToken splits off one rune.
func (s Str) NextToken() (Str, rune, bool) {
	if len(s.s) == 0 {
		return s, 0, false
	}
	r, size := utf8.DecodeRuneInString(s.s)
	return Str{s: s.s[size:]}, r, true
}

// NextSlice splits off n runes. n must be within bounds; violating the
// precondition panics.
func (s Str) NextSlice(n int) (Str, Str) {
	off, short := s.OffsetAt(n)
	if n < 0 || short > 0 {
		panic(fmt.Sprintf("parsez: NextSlice(%d) out of bounds for %q", n, s.s))
	}
	return Str{s: s.s[off:]}, Str{s: s.s[:off]}
}

// OffsetFor returns the byte offset of the first rune satisfying pred.
func (s Str) OffsetFor(pred func(rune) bool) (int, bool) {
	for i, r := range s.s {
		if pred(r) {
			return i, true
		}
	}
	return -1, false
}

// OffsetAt converts a rune count to a byte offset.
func (s Str) OffsetAt(tokens int) (int, int) {
	count := 0
	for i := range s.s {
		if count == tokens {
			return i, 0
		}
		count++
	}
	if count == tokens {
		return len(s.s), 0
	}
	return -1, tokens - count
}

// Compare matches lit against the front of the string. Byte equality is rune
// equality for valid UTF-8, so the comparison never splits a scalar.
func (s Str) Compare(lit string) (int, Comparison) {
	n := len(lit)
	if len(s.s) < n {
		n = len(s.s)
	}
	if s.s[:n] != lit[:n] {
		return 0, CmpMismatch
	}
	if len(s.s) < len(lit) {
		return 0, CmpIncomplete
	}
	return utf8.RuneCountInString(lit), CmpEqual
}

// String returns the remaining text.
func (s Str) String() string { return s.s }

// ToRune converts any token to its Unicode scalar for classification. Bytes
// convert directly, which is correct for the ASCII range the built-in
// predicates cover.
func ToRune[T Token](t T) rune { return rune(t) }

// IsDigit reports whether the token is an ASCII decimal digit.
func IsDigit[T Token](t T) bool {
	r := rune(t)
	return r >= '0' && r <= '9'
}

// IsHexDigit reports whether the token is an ASCII hexadecimal digit.
func IsHexDigit[T Token](t T) bool {
	r := rune(t)
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// IsSpace reports whether the token is ASCII whitespace.
func IsSpace[T Token](t T) bool {
	r := rune(t)
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

// IsAlpha reports whether the token is an ASCII letter.
func IsAlpha[T Token](t T) bool {
	r := rune(t)
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
