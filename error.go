package parsez

import (
	"fmt"
	"strings"
)

// Mode classifies a failing parser outcome. It drives all backtracking
// control flow: Alt recovers from Backtrack by trying its next branch,
// stops immediately on Cut, and surfaces Incomplete untouched so a streaming
// driver can fetch more data.
type Mode uint8

const (
	// Backtrack is a recoverable failure; sibling alternatives may still
	// be tried.
	Backtrack Mode = iota
	// Cut is a committed, unrecoverable failure; the alternative search
	// stops and this error propagates.
	Cut
	// Incomplete means the cursor is a partial buffer and more input is
	// required before a decision can be made. Only primitives operating
	// over a Partial cursor can produce it.
	Incomplete
)

// String returns the mode label used in error messages.
func (m Mode) String() string {
	switch m {
	case Backtrack:
		return "backtrack"
	case Cut:
		return "cut"
	case Incomplete:
		return "incomplete"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Kind identifies which primitive failed. Kinds are tags, not messages:
// rendering belongs to the error type, recovery decisions belong to Mode.
type Kind uint8

const (
	// KindTag marks an expected-literal mismatch.
	KindTag Kind = iota
	// KindToken marks a token that failed a predicate or equality check.
	KindToken
	// KindSlice marks a fixed-length request larger than the remaining input.
	KindSlice
	// KindEOF marks an unexpected end of input, or input where end was required.
	KindEOF
	// KindVerify marks a post-parse predicate rejection.
	KindVerify
	// KindConvert marks a failed output conversion (TryMap).
	KindConvert
	// KindCount marks a repetition that ended below its minimum bound.
	KindCount
	// KindNoProgress marks a repetition body that succeeded without
	// consuming while the bound requested further repetition - an
	// infinite loop rejected as a logic error.
	KindNoProgress
	// KindOverflow marks a request larger than the output can represent.
	KindOverflow
	// KindDispatch marks a parsed key with no registered route.
	KindDispatch
	// KindTrailing marks unconsumed input after a parse that Run required
	// to be exhaustive.
	KindTrailing
	// KindDepth marks a recursion-depth budget exceeded by Guard.
	KindDepth
)

var kindNames = [...]string{
	KindTag:        "literal mismatch",
	KindToken:      "unexpected token",
	KindSlice:      "slice past end of input",
	KindEOF:        "unexpected end of input",
	KindVerify:     "verification rejected",
	KindConvert:    "conversion failed",
	KindCount:      "repetition below minimum",
	KindNoProgress: "repetition made no progress",
	KindOverflow:   "request exceeds capacity",
	KindDispatch:   "no route for key",
	KindTrailing:   "trailing input",
	KindDepth:      "recursion depth exceeded",
}

// String returns the human-readable tag.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Frame records one named parser context active when an error occurred,
// anchored by the remaining input length at that point.
type Frame struct {
	Name      Name
	Remaining int
}

// ParseError is the capability every diagnostic type must implement.
// Connectors never inspect concrete error types: they only construct errors
// (through the New* helpers), merge sibling failures, and push context
// frames via this interface. A caller wanting a leaner or richer diagnostic
// plugs in its own implementation with Func-built rules.
type ParseError interface {
	error

	// Merge combines this error with one recorded by a later sibling
	// branch and returns the survivor.
	Merge(other ParseError) ParseError

	// WithFrame records a named enclosing parser context at the given
	// remaining-length position and returns the updated error.
	WithFrame(name Name, remaining int) ParseError

	// Remaining returns the remaining input length at the failure point,
	// the anchor merge policies compare by.
	Remaining() int
}

// Error is the default ParseError implementation: the failing primitive's
// Kind and position plus an ordered trail of enclosing parser frames,
// accumulated as the failure unwinds (outermost frame first).
type Error struct {
	Kind   Kind
	Rem    int // remaining input length at the failure point
	Cause  error
	Frames []Frame
}

// NewError builds a diagnostic at the given remaining-length position.
func NewError(remaining int, kind Kind) *Error {
	return &Error{Kind: kind, Rem: remaining}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	for _, f := range e.Frames {
		b.WriteString(string(f.Name))
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	fmt.Fprintf(&b, " (%d remaining)", e.Rem)
	return b.String()
}

// Unwrap returns the underlying cause, supporting error wrapping patterns.
func (e *Error) Unwrap() error { return e.Cause }

// Remaining implements ParseError.
func (e *Error) Remaining() int { return e.Rem }

// Merge implements ParseError. The survivor is the error that consumed more
// input before failing (smaller remaining length); on a tie the receiver,
// the earlier branch, wins. Deepest failure is almost always the most
// informative, and the policy costs O(1) with no accumulation.
func (e *Error) Merge(other ParseError) ParseError {
	if other == nil {
		return e
	}
	if other.Remaining() < e.Rem {
		return other
	}
	return e
}

// WithFrame implements ParseError, prepending the enclosing context so the
// outermost parser appears first in the rendered trail.
func (e *Error) WithFrame(name Name, remaining int) ParseError {
	e.Frames = append([]Frame{{Name: name, Remaining: remaining}}, e.Frames...)
	return e
}

// Fail is the uniform failing outcome of a parser: a Mode deciding how
// enclosing combinators react, a Needed shortfall when the Mode is
// Incomplete, and the diagnostic itself.
type Fail struct {
	Mode   Mode
	Needed Needed
	Err    ParseError
}

// NewBacktrack builds a recoverable failure positioned at the cursor.
func NewBacktrack[I Cursor](in I, kind Kind) *Fail {
	return &Fail{Mode: Backtrack, Err: NewError(in.Len(), kind)}
}

// NewCut builds a committed failure positioned at the cursor.
func NewCut[I Cursor](in I, kind Kind) *Fail {
	return &Fail{Mode: Cut, Err: NewError(in.Len(), kind)}
}

// NewIncomplete builds a needs-more-data outcome. Only parsers that have
// checked Partial() on their cursor may construct one; surfacing it from a
// complete input is a contract violation that Run turns into a panic.
func NewIncomplete(needed Needed) *Fail {
	return &Fail{Mode: Incomplete, Needed: needed}
}

// Error implements the error interface.
func (f *Fail) Error() string {
	if f.Mode == Incomplete {
		return fmt.Sprintf("incomplete input: need %s", f.Needed)
	}
	if f.Err == nil {
		return f.Mode.String()
	}
	return f.Err.Error()
}

// Unwrap returns the diagnostic, supporting errors.As against concrete
// ParseError implementations.
func (f *Fail) Unwrap() error {
	if f.Err == nil {
		return nil
	}
	return f.Err
}

// commit upgrades a recoverable failure to a committed one. Cut and
// Incomplete pass through unchanged.
func (f *Fail) commit() *Fail {
	if f.Mode == Backtrack {
		f.Mode = Cut
	}
	return f
}

// frame pushes an enclosing parser context onto the diagnostic. Incomplete
// outcomes carry no diagnostic and pass through unchanged.
func (f *Fail) frame(name Name, remaining int) *Fail {
	if f.Err != nil {
		f.Err = f.Err.WithFrame(name, remaining)
	}
	return f
}

// orFail merges two sibling Backtrack failures under the documented policy:
// the branch that consumed more input wins, ties keep the earlier branch.
// A nil prior means this is the first failing branch.
func orFail(prior, next *Fail) *Fail {
	if prior == nil {
		return next
	}
	if prior.Err == nil {
		return next
	}
	if next == nil || next.Err == nil {
		return prior
	}
	prior.Err = prior.Err.Merge(next.Err)
	return prior
}
