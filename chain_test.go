package parsez

import (
	"context"
	"testing"
)

func TestChain(t *testing.T) {
	t.Run("Collects Step Outputs In Order", func(t *testing.T) {
		chain := NewChain[Str, Str]("request-line",
			Terminated("method", TakeWhile[Str, rune](1, -1, IsAlpha[rune]), One[Str, rune](' ')),
			Terminated("target", TakeTill[Str, rune](1, IsSpace[rune]), One[Str, rune](' ')),
			Tag[Str, rune]("HTTP/1.1"),
		)
		defer chain.Close()

		rest, parts, fail := chain.Parse(context.Background(), NewStr("GET /index.html HTTP/1.1"))
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
		if len(parts) != 3 {
			t.Fatalf("expected 3 parts, got %d", len(parts))
		}
		if parts[0].String() != "GET" || parts[1].String() != "/index.html" {
			t.Errorf("got parts %q %q", parts[0].String(), parts[1].String())
		}
		if rest.Len() != 0 {
			t.Errorf("expected full consumption, got %q", rest.String())
		}
	})

	t.Run("Step Failure Rewinds Fully", func(t *testing.T) {
		chain := NewChain[Str, Str]("ab",
			Tag[Str, rune]("a"),
			Tag[Str, rune]("b"),
		)
		defer chain.Close()

		in := NewStr("ax")
		rest, _, fail := chain.Parse(context.Background(), in)
		if fail == nil {
			t.Fatal("expected failure")
		}
		if rest.Len() != in.Len() {
			t.Error("a failed chain must return the original cursor")
		}
	})

	t.Run("Empty Chain Succeeds Without Consuming", func(t *testing.T) {
		chain := NewChain[Str, Str]("empty")
		defer chain.Close()

		in := NewStr("abc")
		rest, parts, fail := chain.Parse(context.Background(), in)
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
		if len(parts) != 0 || rest.Len() != in.Len() {
			t.Errorf("expected no-op, got %d parts, rest %q", len(parts), rest.String())
		}
	})

	t.Run("Runtime Mutation", func(t *testing.T) {
		chain := NewChain[Str, Str]("grammar",
			Tag[Str, rune]("a"),
			Tag[Str, rune]("c"),
		)
		defer chain.Close()

		if err := chain.After(`tag("a")`, Tag[Str, rune]("b")); err != nil {
			t.Fatalf("After failed: %v", err)
		}
		if chain.Len() != 3 {
			t.Fatalf("expected 3 steps, got %d", chain.Len())
		}

		_, parts, fail := chain.Parse(context.Background(), NewStr("abc"))
		if fail != nil || len(parts) != 3 {
			t.Fatalf("expected 3 parts, got %d fail=%v", len(parts), fail)
		}

		if err := chain.Remove(`tag("b")`); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		if _, _, fail := chain.Parse(context.Background(), NewStr("ac")); fail != nil {
			t.Fatalf("unexpected failure after Remove: %v", fail)
		}
	})

	t.Run("Shift And Pop", func(t *testing.T) {
		chain := NewChain[Str, Str]("two",
			Tag[Str, rune]("a"),
			Tag[Str, rune]("b"),
		)
		defer chain.Close()

		head, err := chain.Shift()
		if err != nil || head.Name() != `tag("a")` {
			t.Fatalf("expected head tag, got %v err=%v", head, err)
		}
		tail, err := chain.Pop()
		if err != nil || tail.Name() != `tag("b")` {
			t.Fatalf("expected tail tag, got %v err=%v", tail, err)
		}
		if _, err := chain.Shift(); err == nil {
			t.Error("expected error shifting an empty chain")
		}
	})
}
