package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zoobzio/parsez"
)

type streamIn = parsez.Partial[parsez.Bytes, byte]

var streamCmd = &cobra.Command{
	Use:   "stream [input]",
	Short: "Drive a streaming parse chunk by chunk",
	Long: `Feed semicolon-terminated words through the parser in fixed-size
chunks, printing each completed frame and every point where the parser
reported that it needs more data.

  parsez stream 'alpha;beta;gamma;' --chunk 4`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		chunk, err := cmd.Flags().GetInt("chunk")
		if err != nil {
			return err
		}
		if chunk < 1 {
			return fmt.Errorf("chunk size must be positive")
		}

		input := "alpha;beta;gamma;"
		if len(args) == 1 {
			input = args[0]
		}

		word := parsez.Terminated("frame",
			parsez.TakeWhile[streamIn, byte](1, -1, parsez.IsAlpha[byte]),
			parsez.One[streamIn, byte](';'),
		)

		feed := []byte(input)
		var buf []byte
		ctx := context.Background()

		for {
			// Parse as many complete frames as the buffer allows.
			for {
				rest, out, err := parsez.RunPrefix[streamIn, streamIn](ctx, word, parsez.NewPartialBytes(buf))
				if err != nil {
					var fail *parsez.Fail
					if errors.As(err, &fail) && fail.Mode == parsez.Incomplete {
						fmt.Printf("  ...incomplete (need %s), buffered %d bytes\n", fail.Needed, len(buf))
						break
					}
					return fmt.Errorf("parse failed: %w", err)
				}
				fmt.Printf("frame: %s\n", out.Inner().String())
				buf = []byte(rest.Inner().String())
			}

			if len(feed) == 0 {
				break
			}
			n := chunk
			if n > len(feed) {
				n = len(feed)
			}
			fmt.Printf("fed %d bytes: %q\n", n, feed[:n])
			buf = append(buf, feed[:n]...)
			feed = feed[n:]
		}

		if len(buf) != 0 {
			fmt.Printf("leftover after feed ended: %q\n", buf)
		}
		return nil
	},
}

func init() {
	streamCmd.Flags().Int("chunk", 4, "bytes fed per network read")
}
