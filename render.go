package parsez

import (
	"errors"
	"fmt"
	"strings"
)

// Annotate renders a parse failure against the original input: the failing
// line with a caret at the failure offset, followed by one frame per nested
// parser context that was active when the deepest error occurred.
//
// The error must stem from a parse over the same input string (or its byte
// form) so remaining-length positions translate back into offsets.
//
//	value, err := parsez.Run(ctx, expr, parsez.NewStr(src))
//	if err != nil {
//	    fmt.Println(parsez.Annotate(src, err))
//	}
func Annotate(input string, err error) string {
	var fail *Fail
	if !errors.As(err, &fail) {
		return err.Error()
	}
	if fail.Mode == Incomplete {
		return fmt.Sprintf("incomplete input: need %s", fail.Needed)
	}

	var diag *Error
	if !errors.As(err, &diag) {
		return err.Error()
	}

	offset := len(input) - diag.Rem
	if offset < 0 {
		offset = 0
	}
	if offset > len(input) {
		offset = len(input)
	}

	line, col, text := locateLine(input, offset)

	var b strings.Builder
	fmt.Fprintf(&b, "parse error at line %d, column %d: %s", line, col, diag.Kind)
	if diag.Cause != nil {
		fmt.Fprintf(&b, ": %s", diag.Cause)
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "  | %s\n", text)
	fmt.Fprintf(&b, "  | %s^\n", strings.Repeat(" ", col-1))
	for _, f := range diag.Frames {
		frameOff := len(input) - f.Remaining
		if frameOff < 0 {
			frameOff = 0
		}
		fmt.Fprintf(&b, "  in %s (offset %d)\n", f.Name, frameOff)
	}
	return strings.TrimRight(b.String(), "\n")
}

// locateLine finds the 1-based line and column of a byte offset along with
// the text of that line.
func locateLine(input string, offset int) (line, col int, text string) {
	line = 1
	start := 0
	for i := 0; i < offset && i < len(input); i++ {
		if input[i] == '\n' {
			line++
			start = i + 1
		}
	}
	end := len(input)
	if nl := strings.IndexByte(input[start:], '\n'); nl >= 0 {
		end = start + nl
	}
	return line, offset - start + 1, input[start:end]
}
