package parsez

import (
	"context"
	"strconv"
	"strings"
	"testing"
)

// exprInput threads a recursion-depth budget through a string cursor.
type exprInput = Stateful[Str, rune, *Depth]

// nestedExpr builds a tiny recursive grammar: an expression is either a
// number or a parenthesized expression, with every recursive entry counted
// against the threaded depth budget.
func nestedExpr() Parser[exprInput, int64] {
	var expr Parser[exprInput, int64]
	recurse := Func("expr", func(ctx context.Context, in exprInput) (exprInput, int64, *Fail) {
		return expr.Parse(ctx, in)
	})

	number := TryMap("number",
		TakeWhile[exprInput, rune](1, -1, IsDigit[rune]),
		func(s exprInput) (int64, error) {
			return strconv.ParseInt(s.Inner().String(), 10, 64)
		},
	)
	group := Delimited("group",
		One[exprInput, rune]('('),
		Guard[Str, rune, *Depth, int64](recurse),
		One[exprInput, rune](')'),
	)

	alt := NewAlt[exprInput, int64]("expr", number, group)
	expr = alt
	return expr
}

func TestStateful(t *testing.T) {
	t.Run("State Rides Along Every Split", func(t *testing.T) {
		type symbols struct{ seen []string }
		state := &symbols{}

		word := TakeWhile[Stateful[Str, rune, *symbols], rune](1, -1, IsAlpha[rune])
		record := Map("record", word, func(s Stateful[Str, rune, *symbols]) string {
			name := s.Inner().String()
			s.State().seen = append(s.State().seen, name)
			return name
		})

		in := NewStateful[Str, rune](NewStr("hello"), state)
		_, out, fail := record.Parse(context.Background(), in)
		if fail != nil || out != "hello" {
			t.Fatalf("got %q fail=%v", out, fail)
		}
		if len(state.seen) != 1 || state.seen[0] != "hello" {
			t.Errorf("state not threaded: %v", state.seen)
		}
	})

	t.Run("Nested Input Within Budget Parses", func(t *testing.T) {
		expr := nestedExpr()
		in := NewStateful[Str, rune](NewStr("(((7)))"), NewDepth(10))
		_, out, fail := expr.Parse(context.Background(), in)
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
		if out != 7 {
			t.Errorf("expected 7, got %d", out)
		}
	})

	t.Run("Budget Exceeded Is A Cut", func(t *testing.T) {
		expr := nestedExpr()
		deep := strings.Repeat("(", 50) + "1" + strings.Repeat(")", 50)
		in := NewStateful[Str, rune](NewStr(deep), NewDepth(8))
		_, _, fail := expr.Parse(context.Background(), in)
		if fail == nil || fail.Mode != Cut {
			t.Fatalf("expected cut once the depth budget is spent, got %v", fail)
		}
	})

	t.Run("Budget Resets Between Siblings", func(t *testing.T) {
		// Sequential groups each recurse once; only simultaneous nesting
		// spends the budget.
		expr := nestedExpr()
		pair := Both("pair", expr,
			Preceded("second", One[exprInput, rune]('+'), expr),
		)
		in := NewStateful[Str, rune](NewStr("(1)+(2)"), NewDepth(2))
		_, out, fail := pair.Parse(context.Background(), in)
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
		if out.First != 1 || out.Second != 2 {
			t.Errorf("got %d and %d", out.First, out.Second)
		}
	})
}
