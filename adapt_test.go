package parsez

import (
	"context"
	"errors"
	"strconv"
	"testing"
)

func TestMap(t *testing.T) {
	t.Run("Transforms Output", func(t *testing.T) {
		digits := TakeWhile[Str, rune](1, -1, IsDigit[rune])
		number := Map("number", digits, func(s Str) int {
			n, _ := strconv.Atoi(s.String())
			return n
		})

		rest, out, fail := number.Parse(context.Background(), NewStr("42 "))
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
		if out != 42 || rest.String() != " " {
			t.Errorf("got %d rest %q", out, rest.String())
		}
	})

	t.Run("Failure Passes Through Untouched", func(t *testing.T) {
		digits := TakeWhile[Str, rune](1, -1, IsDigit[rune])
		number := Map("number", digits, func(s Str) int { return 0 })
		_, _, fail := number.Parse(context.Background(), NewStr("abc"))
		if fail == nil || fail.Mode != Backtrack {
			t.Fatalf("expected backtrack, got %v", fail)
		}
	})
}

func TestTryMap(t *testing.T) {
	t.Run("Conversion Failure Backtracks At Start", func(t *testing.T) {
		digits := TakeWhile[Str, rune](1, -1, IsDigit[rune])
		octet := TryMap("octet", digits, func(s Str) (uint8, error) {
			n, err := strconv.ParseUint(s.String(), 10, 8)
			return uint8(n), err
		})

		in := NewStr("999")
		rest, _, fail := octet.Parse(context.Background(), in)
		if fail == nil || fail.Mode != Backtrack {
			t.Fatalf("expected backtrack, got %v", fail)
		}
		if rest.Len() != in.Len() {
			t.Error("conversion failure must not consume input")
		}

		var diag *Error
		if !errors.As(error(fail), &diag) {
			t.Fatal("expected default diagnostic")
		}
		if diag.Kind != KindConvert || diag.Rem != 3 {
			t.Errorf("expected convert failure anchored at start, got %+v", diag)
		}
		if diag.Cause == nil {
			t.Error("expected the conversion error as cause")
		}
	})

	t.Run("Success Converts", func(t *testing.T) {
		digits := TakeWhile[Str, rune](1, -1, IsDigit[rune])
		octet := TryMap("octet", digits, func(s Str) (uint8, error) {
			n, err := strconv.ParseUint(s.String(), 10, 8)
			return uint8(n), err
		})
		_, out, fail := octet.Parse(context.Background(), NewStr("200"))
		if fail != nil || out != 200 {
			t.Fatalf("expected 200, got %d fail=%v", out, fail)
		}
	})
}

func TestVerify(t *testing.T) {
	t.Run("Rejection Looks Like A Non-Match", func(t *testing.T) {
		word := TakeWhile[Str, rune](1, -1, IsAlpha[rune])
		keyword := Verify("keyword", word, func(s Str) bool {
			return s.String() == "let"
		})

		in := NewStr("fn main")
		rest, _, fail := keyword.Parse(context.Background(), in)
		if fail == nil || fail.Mode != Backtrack {
			t.Fatalf("expected backtrack, got %v", fail)
		}
		if rest.Len() != in.Len() {
			t.Error("rejection must not consume input")
		}
	})

	t.Run("Acceptance Passes Output", func(t *testing.T) {
		word := TakeWhile[Str, rune](1, -1, IsAlpha[rune])
		keyword := Verify("keyword", word, func(s Str) bool {
			return s.String() == "let"
		})
		_, out, fail := keyword.Parse(context.Background(), NewStr("let x"))
		if fail != nil || out.String() != "let" {
			t.Fatalf("expected %q, got %q fail=%v", "let", out.String(), fail)
		}
	})
}

func TestValue(t *testing.T) {
	type unit int
	const seconds unit = 1

	sec := Value("seconds", Tag[Str, rune]("s"), seconds)
	_, out, fail := sec.Parse(context.Background(), NewStr("s"))
	if fail != nil || out != seconds {
		t.Fatalf("expected seconds, got %v fail=%v", out, fail)
	}
}

func TestOpt(t *testing.T) {
	sign := Opt[Str, rune](OneOf[Str, rune]('+', '-'))

	t.Run("Present", func(t *testing.T) {
		rest, out, fail := sign.Parse(context.Background(), NewStr("-42"))
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
		if !out.OK || out.Value != '-' {
			t.Errorf("expected present '-', got %+v", out)
		}
		if rest.String() != "42" {
			t.Errorf("expected rest %q, got %q", "42", rest.String())
		}
	})

	t.Run("Absent Succeeds Without Consuming", func(t *testing.T) {
		in := NewStr("42")
		rest, out, fail := sign.Parse(context.Background(), in)
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
		if out.OK {
			t.Errorf("expected absent, got %+v", out)
		}
		if rest.Len() != in.Len() {
			t.Error("absent optional must not consume")
		}
	})

	t.Run("Cut Still Propagates", func(t *testing.T) {
		committed := Commit[Str, Str](Tag[Str, rune]("x"))
		opt := Opt[Str, Str](committed)
		_, _, fail := opt.Parse(context.Background(), NewStr("y"))
		if fail == nil || fail.Mode != Cut {
			t.Fatalf("expected cut through optional, got %v", fail)
		}
	})

	t.Run("Incomplete Still Propagates", func(t *testing.T) {
		opt := Opt[Partial[Bytes, byte], Partial[Bytes, byte]](Tag[Partial[Bytes, byte], byte]("GET "))
		_, _, fail := opt.Parse(context.Background(), NewPartialBytes([]byte("GE")))
		if fail == nil || fail.Mode != Incomplete {
			t.Fatalf("expected incomplete through optional, got %v", fail)
		}
	})
}

func TestPeek(t *testing.T) {
	in := NewStr("abc")
	rest, out, fail := Peek[Str, Str](Tag[Str, rune]("ab")).Parse(context.Background(), in)
	if fail != nil || out.String() != "ab" {
		t.Fatalf("expected %q, got %q fail=%v", "ab", out.String(), fail)
	}
	if rest.Len() != in.Len() {
		t.Error("peek must not consume")
	}
}

func TestCtx(t *testing.T) {
	t.Run("Adds Frame On Failure", func(t *testing.T) {
		p := Ctx[Str, Str]("header", Tag[Str, rune]("GET"))
		_, _, fail := p.Parse(context.Background(), NewStr("POST"))
		if fail == nil {
			t.Fatal("expected failure")
		}
		var diag *Error
		if !errors.As(error(fail), &diag) {
			t.Fatal("expected default diagnostic")
		}
		if len(diag.Frames) != 1 || diag.Frames[0].Name != "header" {
			t.Errorf("expected single frame %q, got %+v", "header", diag.Frames)
		}
	})

	t.Run("Free On Success", func(t *testing.T) {
		p := Ctx[Str, Str]("header", Tag[Str, rune]("GET"))
		_, out, fail := p.Parse(context.Background(), NewStr("GET"))
		if fail != nil || out.String() != "GET" {
			t.Fatalf("expected %q, got %q fail=%v", "GET", out.String(), fail)
		}
	})
}
