package parsez

import (
	"context"
	"testing"
)

func TestTag(t *testing.T) {
	t.Run("Match", func(t *testing.T) {
		rest, slice, fail := Tag[Bytes, byte]("GET ").Parse(context.Background(), NewBytes([]byte("GET /index")))
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
		if slice.String() != "GET " {
			t.Errorf("expected %q, got %q", "GET ", slice.String())
		}
		if rest.String() != "/index" {
			t.Errorf("expected rest %q, got %q", "/index", rest.String())
		}
	})

	t.Run("Mismatch Backtracks", func(t *testing.T) {
		in := NewBytes([]byte("POST /"))
		rest, _, fail := Tag[Bytes, byte]("GET ").Parse(context.Background(), in)
		if fail == nil || fail.Mode != Backtrack {
			t.Fatalf("expected backtrack, got %v", fail)
		}
		if rest.Len() != in.Len() {
			t.Error("failed parse must return the original cursor")
		}
	})

	t.Run("Short Complete Input Backtracks", func(t *testing.T) {
		_, _, fail := Tag[Bytes, byte]("GET ").Parse(context.Background(), NewBytes([]byte("GE")))
		if fail == nil || fail.Mode != Backtrack {
			t.Fatalf("expected backtrack, got %v", fail)
		}
	})

	t.Run("Rune Literal On Str", func(t *testing.T) {
		rest, slice, fail := Tag[Str, rune]("héllo").Parse(context.Background(), NewStr("héllo!"))
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
		if slice.String() != "héllo" || rest.String() != "!" {
			t.Errorf("got slice %q rest %q", slice.String(), rest.String())
		}
	})
}

func TestTake(t *testing.T) {
	t.Run("Exact Count", func(t *testing.T) {
		rest, slice, fail := Take[Bytes, byte](3).Parse(context.Background(), NewBytes([]byte("abcdef")))
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
		if slice.String() != "abc" || rest.String() != "def" {
			t.Errorf("got slice %q rest %q", slice.String(), rest.String())
		}
	})

	t.Run("Short Complete Input Backtracks", func(t *testing.T) {
		_, _, fail := Take[Bytes, byte](4).Parse(context.Background(), NewBytes([]byte("abc")))
		if fail == nil || fail.Mode != Backtrack {
			t.Fatalf("expected backtrack, got %v", fail)
		}
	})

	t.Run("Runes Not Bytes On Str", func(t *testing.T) {
		_, slice, fail := Take[Str, rune](2).Parse(context.Background(), NewStr("héllo"))
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
		if slice.String() != "hé" {
			t.Errorf("expected %q, got %q", "hé", slice.String())
		}
	})
}

func TestTakeWhile(t *testing.T) {
	t.Run("Stops At Boundary", func(t *testing.T) {
		digits := TakeWhile[Bytes, byte](1, -1, IsDigit[byte])
		rest, slice, fail := digits.Parse(context.Background(), NewBytes([]byte("123abc")))
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
		if slice.String() != "123" || rest.String() != "abc" {
			t.Errorf("got slice %q rest %q", slice.String(), rest.String())
		}
	})

	t.Run("End Of Complete Input Is A Valid Boundary", func(t *testing.T) {
		digits := TakeWhile[Bytes, byte](1, -1, IsDigit[byte])
		rest, slice, fail := digits.Parse(context.Background(), NewBytes([]byte("123")))
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
		if slice.String() != "123" || rest.Len() != 0 {
			t.Errorf("got slice %q rest %q", slice.String(), rest.String())
		}
	})

	t.Run("Below Minimum Backtracks", func(t *testing.T) {
		digits := TakeWhile[Bytes, byte](2, -1, IsDigit[byte])
		_, _, fail := digits.Parse(context.Background(), NewBytes([]byte("1abc")))
		if fail == nil || fail.Mode != Backtrack {
			t.Fatalf("expected backtrack, got %v", fail)
		}
	})

	t.Run("Max Bound Respected", func(t *testing.T) {
		digits := TakeWhile[Bytes, byte](0, 2, IsDigit[byte])
		rest, slice, fail := digits.Parse(context.Background(), NewBytes([]byte("12345")))
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
		if slice.String() != "12" || rest.String() != "345" {
			t.Errorf("got slice %q rest %q", slice.String(), rest.String())
		}
	})
}

func TestTakeTill(t *testing.T) {
	t.Run("Stops Before Terminator", func(t *testing.T) {
		line := TakeTill[Bytes, byte](0, func(b byte) bool { return b == '\n' })
		rest, slice, fail := line.Parse(context.Background(), NewBytes([]byte("abc\ndef")))
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
		if slice.String() != "abc" {
			t.Errorf("expected %q, got %q", "abc", slice.String())
		}
		if rest.String() != "\ndef" {
			t.Error("terminator must not be consumed")
		}
	})
}

func TestOne(t *testing.T) {
	t.Run("Match", func(t *testing.T) {
		rest, tok, fail := One[Bytes, byte]('(').Parse(context.Background(), NewBytes([]byte("(a)")))
		if fail != nil || tok != '(' {
			t.Fatalf("expected '(', got %q fail=%v", tok, fail)
		}
		if rest.String() != "a)" {
			t.Errorf("expected rest %q, got %q", "a)", rest.String())
		}
	})

	t.Run("Wrong Token Backtracks", func(t *testing.T) {
		_, _, fail := One[Bytes, byte]('(').Parse(context.Background(), NewBytes([]byte("a")))
		if fail == nil || fail.Mode != Backtrack {
			t.Fatalf("expected backtrack, got %v", fail)
		}
	})

	t.Run("Empty Complete Input Backtracks", func(t *testing.T) {
		_, _, fail := One[Bytes, byte]('(').Parse(context.Background(), NewBytes(nil))
		if fail == nil || fail.Mode != Backtrack {
			t.Fatalf("expected backtrack, got %v", fail)
		}
	})
}

func TestOneOf(t *testing.T) {
	t.Run("Any From Set", func(t *testing.T) {
		sign := OneOf[Str, rune]('+', '-')
		_, tok, fail := sign.Parse(context.Background(), NewStr("-42"))
		if fail != nil || tok != '-' {
			t.Fatalf("expected '-', got %q fail=%v", tok, fail)
		}
	})

	t.Run("Outside Set Backtracks", func(t *testing.T) {
		sign := OneOf[Str, rune]('+', '-')
		_, _, fail := sign.Parse(context.Background(), NewStr("42"))
		if fail == nil || fail.Mode != Backtrack {
			t.Fatalf("expected backtrack, got %v", fail)
		}
	})
}

func TestAny(t *testing.T) {
	t.Run("Consumes One Token", func(t *testing.T) {
		rest, tok, fail := Any[Bytes, byte]().Parse(context.Background(), NewBytes([]byte{0xff, 0x01}))
		if fail != nil || tok != 0xff {
			t.Fatalf("expected 0xff, got %#x fail=%v", tok, fail)
		}
		if rest.Len() != 1 {
			t.Errorf("expected 1 remaining, got %d", rest.Len())
		}
	})

	t.Run("Empty Complete Input Backtracks", func(t *testing.T) {
		_, _, fail := Any[Bytes, byte]().Parse(context.Background(), NewBytes(nil))
		if fail == nil || fail.Mode != Backtrack {
			t.Fatalf("expected backtrack, got %v", fail)
		}
	})
}

func TestEnd(t *testing.T) {
	t.Run("Succeeds At End", func(t *testing.T) {
		_, _, fail := End[Bytes, byte]().Parse(context.Background(), NewBytes(nil))
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
	})

	t.Run("Remaining Input Backtracks", func(t *testing.T) {
		_, _, fail := End[Bytes, byte]().Parse(context.Background(), NewBytes([]byte("x")))
		if fail == nil || fail.Mode != Backtrack {
			t.Fatalf("expected backtrack, got %v", fail)
		}
	})
}
