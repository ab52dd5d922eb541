package parsez

import "context"

// Run executes a parser against an input and requires it to consume
// everything. It is the entry point for callers that hold a complete
// document: partial consumption is reported as a trailing-input failure
// rather than silently returning a prefix parse.
//
//	req, err := parsez.Run(ctx, requestLine, parsez.NewBytes(buf))
//
// An Incomplete outcome from a non-partial cursor is a contract violation
// (some rule claimed to need more data from an input that can never grow)
// and panics rather than returning a failure the caller cannot act on.
func Run[I Cursor, O any](ctx context.Context, p Parser[I, O], in I) (O, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	rest, out, fail := p.Parse(ctx, in)
	if fail != nil {
		if fail.Mode == Incomplete && !in.Partial() {
			panic("parsez: incomplete outcome from a complete input (parser violated the Partial contract)")
		}
		var zero O
		return zero, fail
	}
	if rest.Len() != 0 {
		var zero O
		return zero, NewBacktrack(rest, KindTrailing).frame(p.Name(), in.Len())
	}
	return out, nil
}

// RunPrefix executes a parser and returns the unconsumed remainder along
// with the output. Streaming drivers use it to parse as many complete
// frames as the buffered data allows, feeding the remainder back in front
// of the next read.
func RunPrefix[I Cursor, O any](ctx context.Context, p Parser[I, O], in I) (I, O, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	rest, out, fail := p.Parse(ctx, in)
	if fail != nil {
		if fail.Mode == Incomplete && !in.Partial() {
			panic("parsez: incomplete outcome from a complete input (parser violated the Partial contract)")
		}
		var zero O
		return in, zero, fail
	}
	return rest, out, nil
}
