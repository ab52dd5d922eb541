// Package parsez provides a lightweight, type-safe library for building composable parsers in Go.
//
// # Overview
//
// parsez assembles full parsers for text and binary formats out of small,
// focused parsing functions. There is no grammar file and no code generation
// step: a parser is an ordinary Go value, and larger parsers are built by
// composing smaller ones. The library covers byte- and rune-oriented input,
// streaming (partial buffer) parsing, backtracking with explicit commit
// points, and sub-byte bit-field extraction.
//
// # Installation
//
//	go get github.com/zoobzio/parsez
//
// Requires Go 1.21+ for generic type constraints.
//
// # Core Concepts
//
// The library is built around a single, uniform interface:
//
//	type Parser[I Cursor, O any] interface {
//	    Parse(context.Context, I) (I, O, *Fail)
//	    Name() Name
//	}
//
// A parser receives a cursor over the remaining input, and on success returns
// the advanced cursor together with its output. On failure it returns a *Fail
// carrying one of three outcomes:
//
//   - Backtrack: recoverable; an enclosing Alt may try its next branch
//   - Cut: committed; stop trying alternatives, report this error
//   - Incomplete: the input is a partial buffer and more data is required
//
// Key components:
//   - Rules: individual parsing steps created with adapter functions
//     (Tag, Take, TakeWhile, Map, Verify, Delimited, ...)
//   - Connectors: compose multiple parsers into grammars
//     (Alt, Chain, Repeat, Fold, Dispatch, Trace)
//
// Design philosophy:
//   - Rules are immutable values (simple functions wrapped with metadata)
//   - Connectors are mutable pointers (configurable containers with state)
//
// Everything implements Parser[I, O], enabling seamless composition while
// maintaining type safety through Go generics. Parsing is fail-fast: a
// sequence stops at the first failing step, and the failure's mode decides
// whether enclosing alternatives may recover.
//
// # Cursors
//
// All parsers operate on a cursor: an immutable, cheaply-copyable view over
// the remaining input. Two concrete cursors are provided:
//
//	in := parsez.NewBytes(data)    // token = byte
//	in := parsez.NewStr("x = 12")  // token = rune, UTF-8 boundary safe
//
// Decorators wrap a cursor and are themselves cursors:
//
//	parsez.NewPartialBytes(chunk)        // streaming: end of buffer != end of data
//	parsez.NewLocated(in)                // absolute offset/span tracking
//	parsez.NewStateful(in, &myState)     // threaded user state (counters, arenas)
//
// Streaming versus complete behavior is selected by the cursor type, not by a
// runtime flag: primitives scanning a Partial cursor report
// Incomplete(Needed) when they run off the end of the available prefix, while
// the same primitives over a plain cursor treat end-of-buffer as a definitive
// boundary.
//
// # Quick Start
//
//	digits := parsez.TakeWhile[parsez.Str, rune](1, -1, parsez.IsDigit[rune])
//	number := parsez.TryMap("number", digits, func(s parsez.Str) (int, error) {
//	    return strconv.Atoi(s.String())
//	})
//
//	value, err := parsez.Run(context.Background(), number, parsez.NewStr("42"))
//	// value: 42, err: nil
//
// # Connectors
//
// Alternation: first match wins; Backtrack failures move on to the next
// branch, Cut and Incomplete stop the search immediately:
//
//	keyword := parsez.NewAlt[parsez.Str, parsez.Str]("keyword",
//	    parsez.Tag[parsez.Str, rune]("let"),
//	    parsez.Tag[parsez.Str, rune]("const"),
//	)
//
// Repetition is bounded, with accumulator capacity hints clamped so untrusted
// length fields can never force huge allocations:
//
//	items := parsez.NewRepeat("items", 1, -1, item)
//
// Routing dispatches on a parsed key, the parser-shaped switch statement:
//
//	stmt := parsez.NewDispatch[parsez.Str, string, Node]("stmt", keywordName)
//	stmt.AddRoute("let", letStmt)
//	stmt.AddRoute("const", constStmt)
//
// # Commit points
//
// After a disambiguating prefix has matched, wrap the remainder in Commit so
// its failures become Cut and sibling alternatives are not retried. This is
// what produces errors like `expected ")" after "("` instead of a fully
// backtracked "no alternative matched":
//
//	group := parsez.Delimited("group",
//	    parsez.Tag[parsez.Str, rune]("("),
//	    parsez.Commit(expr),
//	    parsez.Commit(parsez.Tag[parsez.Str, rune](")")),
//	)
//
// # Streaming
//
// A parser over a Partial cursor that runs out of data returns a *Fail with
// Mode Incomplete and a Needed hint. The caller re-invokes the whole parse on
// a larger buffer; cursors are cheap enough that the re-scan is the intended
// design, not an inefficiency to work around:
//
//	for {
//	    out, err := parsez.Run(ctx, p, parsez.NewPartialBytes(buf))
//	    var fail *parsez.Fail
//	    if errors.As(err, &fail) && fail.Mode == parsez.Incomplete {
//	        buf = readMore(buf, fail.Needed)
//	        continue
//	    }
//	    return out, err
//	}
//
// # Bit-level parsing
//
// BitMode bridges a byte cursor to a bit-offset cursor for TLV headers and
// other bit-packed layouts. Leaving bit mode drops any partially consumed
// byte, a deliberate, documented lossy boundary:
//
//	version := parsez.TakeBits[parsez.Bytes, uint8](3)
//	flags := parsez.TakeBits[parsez.Bytes, uint8](5)
//	header := parsez.BitMode("header", parsez.Both("vf", version, flags))
//
// # Observability
//
// Connectors expose metrics (metricz), spans (tracez) and typed events
// (hookz), and emit global signals (capitan) at decision points such as
// alternation exhaustion or a clamped capacity hint. The Trace connector
// wraps any parser with the full set, with an injectable clock (clockz) for
// deterministic duration tests.
//
// # Hazards
//
// Backtracking is exponential on pathological grammars. That is a documented
// property of combinator parsing, not a bug. Recursive grammars must cap
// their depth explicitly (see Stateful and Depth); the stack is the only
// recursion budget otherwise.
package parsez

import "context"

// Parser defines the interface for any component that can parse a value of
// type O out of a cursor of type I. This interface is the foundation of
// parsez: every rule and every connector implements it, enabling seamless
// composition while maintaining type safety through Go generics.
//
// Parse takes the cursor by value and returns the remaining cursor alongside
// the output. A parser never mutates caller state behind the scenes: on
// failure the caller's cursor is untouched and may be handed to another
// parser, which is exactly how Alt implements backtracking.
//
// Key design principles:
//   - Cursor threading by value (clones are a pointer+length copy)
//   - Type safety through generics (no interface{})
//   - Tri-state failure for backtrack/commit/streaming control flow
//   - Named components for debugging and error traces
type Parser[I Cursor, O any] interface {
	Parse(context.Context, I) (I, O, *Fail)
	Name() Name
}

// Name is a type alias for rule and connector names.
// Using this type encourages storing names as constants rather than
// using inline strings throughout your code.
//
// Example:
//
//	const (
//	    NumberName Name = "number"
//	    StringName Name = "string"
//	    ObjectName Name = "object"
//	)
type Name = string

// Rule is a named parsing step, the basic building block created by adapter
// functions like Tag, Take, TakeWhile, Map, Verify, and Delimited. The name
// appears in error frames to identify exactly where a parse failed.
//
// The fn field is intentionally private so rules are only created through
// the provided adapter functions (or Func), keeping error construction and
// frame tracking consistent.
type Rule[I Cursor, O any] struct {
	fn   func(context.Context, I) (I, O, *Fail)
	name Name
}

// Func wraps a plain function as a Rule. This is the extension point for
// hand-written parsers:
//
//	hexPair := parsez.Func("hex_pair", func(_ context.Context, in parsez.Bytes) (parsez.Bytes, byte, *parsez.Fail) {
//	    ...
//	})
func Func[I Cursor, O any](name Name, fn func(context.Context, I) (I, O, *Fail)) Rule[I, O] {
	return Rule[I, O]{name: name, fn: fn}
}

// Parse implements the Parser interface, allowing individual rules to be
// used directly or composed in connectors.
func (r Rule[I, O]) Parse(ctx context.Context, in I) (I, O, *Fail) {
	return r.fn(ctx, in)
}

// Name returns the name of the rule for debugging and error reporting.
func (r Rule[I, O]) Name() Name {
	return r.name
}
