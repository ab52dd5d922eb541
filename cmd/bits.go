package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zoobzio/parsez"
)

// frame is the output of one decoded packet.
type frame struct {
	version uint8
	body    string
}

var bitsCmd = &cobra.Command{
	Use:   "bits [hex]",
	Short: "Decode a bit-packed binary frame",
	Long: `Decode a frame with sub-byte fields from hex input.

Layout: the first byte packs a 3-bit version and a 5-bit frame type, then a
big-endian 16-bit payload length, then the payload. Type 1 is text, type 2 a
binary blob; the payload renderer is selected by routing on the parsed type.

With no argument a sample frame (version 1, text "hello") is decoded:

  parsez bits 21000568656c6c6f`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		input := "21000568656c6c6f"
		if len(args) == 1 {
			input = args[0]
		}
		raw, err := hex.DecodeString(input)
		if err != nil {
			return fmt.Errorf("invalid hex: %w", err)
		}

		decoder := buildFrame()

		out, err := parsez.Run[parsez.Bytes, frame](context.Background(), decoder, parsez.NewBytes(raw))
		if err != nil {
			return fmt.Errorf("decode failed: %w", err)
		}
		fmt.Printf("version: %d\n", out.version)
		fmt.Printf("payload: %s\n", out.body)
		return nil
	},
}

// buildFrame assembles the packet decoder. The version is peeked from the
// header bits, then the dispatch consumes the header byte and routes on the
// frame type.
func buildFrame() parsez.Rule[parsez.Bytes, frame] {
	version := parsez.Peek[parsez.Bytes, uint8](parsez.BitMode("version",
		parsez.TakeBits[parsez.Bytes, uint8](3)))

	kind := parsez.BitMode("kind", parsez.Map("header",
		parsez.Both("ver-type",
			parsez.TakeBits[parsez.Bytes, uint8](3),
			parsez.TakeBits[parsez.Bytes, uint8](5),
		),
		func(p parsez.Pair[uint8, uint8]) uint8 { return p.Second },
	))

	payload := parsez.Func("payload", func(ctx context.Context, in parsez.Bytes) (parsez.Bytes, parsez.Bytes, *parsez.Fail) {
		cur, n, fail := parsez.BeUint[parsez.Bytes, uint16](2).Parse(ctx, in)
		if fail != nil {
			var zero parsez.Bytes
			return in, zero, fail
		}
		return parsez.Take[parsez.Bytes, byte](int(n)).Parse(ctx, cur)
	})

	router := parsez.NewDispatch[parsez.Bytes, uint8, string]("payload", kind)
	router.AddRoute(1, parsez.Map("text", payload, func(b parsez.Bytes) string {
		return fmt.Sprintf("text %q", b.String())
	}))
	router.AddRoute(2, parsez.Map("blob", payload, func(b parsez.Bytes) string {
		return fmt.Sprintf("blob % x", b.Bytes())
	}))

	return parsez.Map("frame",
		parsez.Both("frame-parts", version, router),
		func(p parsez.Pair[uint8, string]) frame {
			return frame{version: p.First, body: p.Second}
		},
	)
}
