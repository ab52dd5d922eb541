package parsez

import (
	"math"
	"testing"
)

func TestBytes(t *testing.T) {
	t.Run("NextToken", func(t *testing.T) {
		in := NewBytes([]byte("ab"))
		rest, tok, ok := in.NextToken()
		if !ok || tok != 'a' {
			t.Fatalf("expected 'a', got %q ok=%v", tok, ok)
		}
		rest, tok, ok = rest.NextToken()
		if !ok || tok != 'b' {
			t.Fatalf("expected 'b', got %q ok=%v", tok, ok)
		}
		_, _, ok = rest.NextToken()
		if ok {
			t.Error("expected false at end of buffer")
		}
	})

	t.Run("NextSlice", func(t *testing.T) {
		in := NewBytes([]byte("hello"))
		rest, slice := in.NextSlice(3)
		if slice.String() != "hel" {
			t.Errorf("expected slice %q, got %q", "hel", slice.String())
		}
		if rest.String() != "lo" {
			t.Errorf("expected rest %q, got %q", "lo", rest.String())
		}
	})

	t.Run("NextSlice Out Of Bounds Panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic for out-of-bounds slice")
			}
		}()
		NewBytes([]byte("ab")).NextSlice(3)
	})

	t.Run("OffsetFor", func(t *testing.T) {
		in := NewBytes([]byte("abc123"))
		off, found := in.OffsetFor(IsDigit[byte])
		if !found || off != 3 {
			t.Errorf("expected offset 3, got %d found=%v", off, found)
		}
		_, found = in.OffsetFor(IsSpace[byte])
		if found {
			t.Error("expected not found")
		}
	})

	t.Run("OffsetAt", func(t *testing.T) {
		in := NewBytes([]byte("abc"))
		off, short := in.OffsetAt(2)
		if off != 2 || short != 0 {
			t.Errorf("expected (2, 0), got (%d, %d)", off, short)
		}
		_, short = in.OffsetAt(5)
		if short != 2 {
			t.Errorf("expected shortfall 2, got %d", short)
		}
	})

	t.Run("Compare", func(t *testing.T) {
		in := NewBytes([]byte("GET /index"))
		tokens, cmp := in.Compare("GET ")
		if cmp != CmpEqual || tokens != 4 {
			t.Errorf("expected (4, CmpEqual), got (%d, %v)", tokens, cmp)
		}
		_, cmp = in.Compare("POST")
		if cmp != CmpMismatch {
			t.Errorf("expected CmpMismatch, got %v", cmp)
		}
		_, cmp = NewBytes([]byte("GE")).Compare("GET ")
		if cmp != CmpIncomplete {
			t.Errorf("expected CmpIncomplete, got %v", cmp)
		}
	})
}

func TestStr(t *testing.T) {
	t.Run("Rune Tokens", func(t *testing.T) {
		in := NewStr("héllo")
		rest, tok, ok := in.NextToken()
		if !ok || tok != 'h' {
			t.Fatalf("expected 'h', got %q", tok)
		}
		rest, tok, ok = rest.NextToken()
		if !ok || tok != 'é' {
			t.Fatalf("expected 'é', got %q", tok)
		}
		if rest.String() != "llo" {
			t.Errorf("expected rest %q, got %q", "llo", rest.String())
		}
	})

	t.Run("NextSlice Respects Rune Boundaries", func(t *testing.T) {
		in := NewStr("héllo")
		rest, slice := in.NextSlice(2)
		if slice.String() != "hé" {
			t.Errorf("expected slice %q, got %q", "hé", slice.String())
		}
		if rest.String() != "llo" {
			t.Errorf("expected rest %q, got %q", "llo", rest.String())
		}
	})

	t.Run("Len Is Bytes", func(t *testing.T) {
		if got := NewStr("hé").Len(); got != 3 {
			t.Errorf("expected byte length 3, got %d", got)
		}
	})

	t.Run("OffsetAt Counts Runes", func(t *testing.T) {
		in := NewStr("héllo")
		off, short := in.OffsetAt(2)
		if off != 3 || short != 0 {
			t.Errorf("expected (3, 0), got (%d, %d)", off, short)
		}
		_, short = in.OffsetAt(7)
		if short != 2 {
			t.Errorf("expected shortfall 2, got %d", short)
		}
	})

	t.Run("Compare Counts Tokens In Runes", func(t *testing.T) {
		in := NewStr("héllo world")
		tokens, cmp := in.Compare("héllo")
		if cmp != CmpEqual || tokens != 5 {
			t.Errorf("expected (5, CmpEqual), got (%d, %v)", tokens, cmp)
		}
	})

	t.Run("OffsetFor Returns Byte Offsets", func(t *testing.T) {
		in := NewStr("héllo world")
		off, found := in.OffsetFor(IsSpace[rune])
		if !found || off != 6 {
			t.Errorf("expected byte offset 6, got %d found=%v", off, found)
		}
	})
}

func TestNeeded(t *testing.T) {
	t.Run("Unknown", func(t *testing.T) {
		if NeededUnknown.Known() {
			t.Error("NeededUnknown must not report Known")
		}
		if NeededSize(0) != NeededUnknown {
			t.Error("zero shortfall must collapse to NeededUnknown")
		}
	})

	t.Run("Exact", func(t *testing.T) {
		n := NeededSize(5)
		if !n.Known() || n.Size() != 5 {
			t.Errorf("expected known size 5, got %v", n)
		}
	})

	t.Run("Bits To Bytes Rounds Up", func(t *testing.T) {
		if got := NeededSize(9).toBytes(); got != NeededSize(2) {
			t.Errorf("expected 2 bytes for 9 bits, got %v", got)
		}
		if got := NeededSize(8).toBytes(); got != NeededSize(1) {
			t.Errorf("expected 1 byte for 8 bits, got %v", got)
		}
		if got := Needed(math.MaxUint64).toBytes(); got == NeededUnknown {
			t.Error("saturating conversion must not collapse to unknown")
		}
	})

	t.Run("Bytes To Bits Checked", func(t *testing.T) {
		bits, ok := NeededSize(3).toBits()
		if !ok || bits != NeededSize(24) {
			t.Errorf("expected 24 bits, got %v ok=%v", bits, ok)
		}
		if _, ok := Needed(math.MaxUint64 / 2).toBits(); ok {
			t.Error("expected overflow to report not ok")
		}
		bits, ok = NeededUnknown.toBits()
		if !ok || bits != NeededUnknown {
			t.Error("unknown must pass through conversion")
		}
	})
}
