package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/arcward/edifact"
)

var formatNewlines bool

var formatCmd = &cobra.Command{
	Use:   "format <file>",
	Short: "Re-serialize an interchange",
	Args:  cobra.ExactArgs(1),
	RunE:  runFormat,
}

func init() {
	rootCmd.AddCommand(formatCmd)
	formatCmd.Flags().BoolVar(&formatNewlines, "newlines", false, "write one segment per line")
}

func runFormat(cmd *cobra.Command, args []string) error {
	ic, err := readInterchange(args[0])
	if err != nil {
		return err
	}
	text, err := ic.Serialize()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !formatNewlines {
		_, err = fmt.Fprintln(out, text)
		return err
	}
	segments := slices.Concat(
		[]*edifact.Segment{ic.Header()},
		ic.Body(),
		[]*edifact.Segment{ic.Trailer()},
	)
	for _, seg := range segments {
		if _, err = fmt.Fprintln(out, seg.Format(ic.Delimiters())); err != nil {
			return err
		}
	}
	return nil
}
