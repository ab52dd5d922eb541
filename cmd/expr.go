package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/zoobzio/parsez"
)

// exprIn threads a recursion-depth budget through the string cursor so
// hostile nesting cannot grow the stack without bound.
type exprIn = parsez.Stateful[parsez.Str, rune, *parsez.Depth]

var exprCmd = &cobra.Command{
	Use:   "expr <expression>",
	Short: "Evaluate an arithmetic expression",
	Long: `Parse and evaluate an integer expression with +, -, * and parentheses.

Failures are rendered against the source with a caret and the trail of
grammar rules that were active, e.g.:

  parsez expr '2 * (3 + )'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		depth, err := cmd.Flags().GetInt("depth")
		if err != nil {
			return err
		}

		src := args[0]
		grammar := buildExpr()
		in := parsez.NewStateful[parsez.Str, rune](parsez.NewStr(src), parsez.NewDepth(depth))

		out, err := parsez.Run(context.Background(), grammar, in)
		if err != nil {
			fmt.Println(parsez.Annotate(src, err))
			return fmt.Errorf("parse failed")
		}
		fmt.Printf("%s = %d\n", src, out)
		return nil
	},
}

func init() {
	exprCmd.Flags().Int("depth", 64, "recursion depth budget")
}

// lexeme wraps a parser to swallow trailing whitespace.
func lexeme[O any](p parsez.Parser[exprIn, O]) parsez.Rule[exprIn, O] {
	ws := parsez.TakeWhile[exprIn, rune](0, -1, parsez.IsSpace[rune])
	return parsez.Terminated(p.Name(), p, ws)
}

// buildExpr assembles the grammar:
//
//	expr   = term (("+" | "-") term)*
//	term   = factor ("*" factor)*
//	factor = number | "(" expr ")"
//
// Folds keep the arithmetic left-associative, and the parenthesized branch
// commits after "(" so a malformed group reports the real problem instead of
// backtracking out of the whole expression.
func buildExpr() parsez.Parser[exprIn, int64] {
	var expr parsez.Parser[exprIn, int64]
	recurse := parsez.Func("expr", func(ctx context.Context, in exprIn) (exprIn, int64, *parsez.Fail) {
		return expr.Parse(ctx, in)
	})

	number := lexeme[int64](parsez.TryMap("number",
		parsez.TakeWhile[exprIn, rune](1, -1, parsez.IsDigit[rune]),
		func(s exprIn) (int64, error) {
			return strconv.ParseInt(s.Inner().String(), 10, 64)
		},
	))

	group := parsez.Preceded("group",
		lexeme[rune](parsez.One[exprIn, rune]('(')),
		parsez.Commit[exprIn, int64](parsez.Terminated("group-body",
			parsez.Guard[parsez.Str, rune, *parsez.Depth, int64](recurse),
			lexeme[rune](parsez.One[exprIn, rune](')')),
		)),
	)

	factor := parsez.NewAlt[exprIn, int64]("factor", number, group)

	mulRhs := parsez.Preceded("mul-rhs",
		lexeme[rune](parsez.One[exprIn, rune]('*')),
		factor,
	)
	mulChain := parsez.NewFold[exprIn, int64, int64]("mul-chain", 0, -1, mulRhs,
		func() int64 { return 1 },
		func(acc, x int64) int64 { return acc * x },
	)
	term := parsez.Map("term",
		parsez.Both("term-parts", factor, mulChain),
		func(p parsez.Pair[int64, int64]) int64 { return p.First * p.Second },
	)

	addRhs := parsez.NewAlt[exprIn, int64]("add-rhs",
		parsez.Preceded("plus", lexeme[rune](parsez.One[exprIn, rune]('+')), term),
		parsez.Map("minus",
			parsez.Preceded("minus-rhs", lexeme[rune](parsez.One[exprIn, rune]('-')), term),
			func(x int64) int64 { return -x },
		),
	)
	sumChain := parsez.NewFold[exprIn, int64, int64]("sum-chain", 0, -1, addRhs,
		func() int64 { return 0 },
		func(acc, x int64) int64 { return acc + x },
	)
	sum := parsez.Map("sum",
		parsez.Both("sum-parts", term, sumChain),
		func(p parsez.Pair[int64, int64]) int64 { return p.First + p.Second },
	)

	leading := parsez.TakeWhile[exprIn, rune](0, -1, parsez.IsSpace[rune])
	expr = parsez.Ctx[exprIn, int64]("expression", parsez.Preceded("padded", leading, sum))
	return expr
}
