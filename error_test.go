package parsez

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestError(t *testing.T) {
	t.Run("Message Includes Frames And Position", func(t *testing.T) {
		diag := NewError(5, KindTag)
		diag.WithFrame("value", 8)
		diag.WithFrame("object", 10)

		msg := diag.Error()
		if !strings.Contains(msg, "object: value:") {
			t.Errorf("expected outermost frame first, got %q", msg)
		}
		if !strings.Contains(msg, "(5 remaining)") {
			t.Errorf("expected position anchor, got %q", msg)
		}
	})

	t.Run("Merge Keeps Furthest Consumption", func(t *testing.T) {
		shallow := NewError(10, KindTag)
		deep := NewError(3, KindToken)

		if got := shallow.Merge(deep); got != ParseError(deep) {
			t.Error("the error that consumed more input must survive")
		}
		if got := deep.Merge(shallow); got != ParseError(deep) {
			t.Error("merge must be position-driven regardless of order")
		}
	})

	t.Run("Merge Tie Keeps Receiver", func(t *testing.T) {
		first := NewError(5, KindTag)
		second := NewError(5, KindToken)
		if got := first.Merge(second); got != ParseError(first) {
			t.Error("on a tie the earlier branch must win")
		}
	})

	t.Run("Unwrap Exposes Cause", func(t *testing.T) {
		cause := errors.New("strconv: value out of range")
		diag := NewError(0, KindConvert)
		diag.Cause = cause
		if !errors.Is(diag, cause) {
			t.Error("errors.Is must reach the cause")
		}
	})
}

func TestFail(t *testing.T) {
	t.Run("Commit Upgrades Backtrack", func(t *testing.T) {
		fail := NewBacktrack(NewBytes([]byte("x")), KindTag)
		if fail.commit().Mode != Cut {
			t.Error("expected cut after commit")
		}
	})

	t.Run("Commit Leaves Cut And Incomplete Alone", func(t *testing.T) {
		if NewCut(NewBytes(nil), KindTag).commit().Mode != Cut {
			t.Error("cut must stay cut")
		}
		if NewIncomplete(NeededSize(2)).commit().Mode != Incomplete {
			t.Error("incomplete must stay incomplete")
		}
	})

	t.Run("Errors As Reaches Diagnostic", func(t *testing.T) {
		fail := NewBacktrack(NewBytes([]byte("abc")), KindVerify)
		var diag *Error
		if !errors.As(error(fail), &diag) {
			t.Fatal("errors.As must unwrap Fail to the diagnostic")
		}
		if diag.Kind != KindVerify || diag.Rem != 3 {
			t.Errorf("unexpected diagnostic: %+v", diag)
		}
	})

	t.Run("Incomplete Message Reports Shortfall", func(t *testing.T) {
		if got := NewIncomplete(NeededSize(4)).Error(); !strings.Contains(got, "4 more") {
			t.Errorf("expected shortfall in message, got %q", got)
		}
		if got := NewIncomplete(NeededUnknown).Error(); !strings.Contains(got, "unknown") {
			t.Errorf("expected unknown shortfall in message, got %q", got)
		}
	})
}

func TestCommitPoints(t *testing.T) {
	t.Run("Alt Stops Probing After Commit", func(t *testing.T) {
		// "(" commits: a malformed parenthesized expression must not fall
		// through to the bare-word branch.
		open := One[Str, rune]('(')
		word := TakeWhile[Str, rune](1, -1, IsAlpha[rune])
		group := Preceded("group", open, Commit[Str, Str](word))

		alt := NewAlt[Str, Str]("value", group, word)
		defer alt.Close()

		_, _, fail := alt.Parse(context.Background(), NewStr("(123)"))
		if fail == nil || fail.Mode != Cut {
			t.Fatalf("expected cut, got %v", fail)
		}
	})
}

func TestAnnotate(t *testing.T) {
	t.Run("Caret At Failure Offset", func(t *testing.T) {
		src := "let x = @"
		tag := Ctx[Str, Str]("binding", Preceded("rhs",
			Tag[Str, rune]("let x = "),
			TakeWhile[Str, rune](1, -1, IsDigit[rune]),
		))
		_, err := Run[Str, Str](context.Background(), tag, NewStr(src))
		if err == nil {
			t.Fatal("expected failure")
		}

		out := Annotate(src, err)
		if !strings.Contains(out, "line 1, column 9") {
			t.Errorf("expected caret at column 9, got:\n%s", out)
		}
		if !strings.Contains(out, "in binding") {
			t.Errorf("expected frame trail, got:\n%s", out)
		}
		if !strings.Contains(out, src) {
			t.Errorf("expected source line in output, got:\n%s", out)
		}
	})

	t.Run("Incomplete Renders Shortfall", func(t *testing.T) {
		err := error(NewIncomplete(NeededSize(3)))
		if got := Annotate("abc", err); !strings.Contains(got, "3 more") {
			t.Errorf("expected shortfall, got %q", got)
		}
	})

	t.Run("Foreign Errors Pass Through", func(t *testing.T) {
		err := errors.New("not a parse failure")
		if got := Annotate("x", err); got != err.Error() {
			t.Errorf("expected passthrough, got %q", got)
		}
	})
}
