package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"oracletally/internal/tally"
)

func newEncodeCmd() *cobra.Command {
	var micros bool

	cmd := &cobra.Command{
		Use:   "encode <price>",
		Short: "Encode a price into the 16-byte result buffer",
		Long: `Encodes a dollar amount such as 150.25 (or, with --micros, an integer count of
micro-dollars) into the little-endian result buffer and prints it as hex.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := parseAmount(args[0], micros)
			if err != nil {
				return err
			}
			buf := tally.EncodePrice(price)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(buf[:]))
			return err
		},
	}

	cmd.Flags().BoolVar(&micros, "micros", false, "treat the argument as micro-dollars")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode a result buffer into a price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(args[0])), "0x")
			buf, err := hex.DecodeString(s)
			if err != nil {
				return fmt.Errorf("invalid hex: %w", err)
			}
			price, err := tally.DecodePrice(buf)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d micro-dollars (%s USD)\n", price, tally.FormatMicros(price))
			return err
		},
	}
}

func parseAmount(s string, micros bool) (uint64, error) {
	if micros {
		v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid micro-dollar amount %q: %w", s, err)
		}
		return v, nil
	}
	return tally.ParseDollars(s)
}
