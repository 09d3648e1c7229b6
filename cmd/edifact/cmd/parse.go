package cmd

import (
	"encoding/json"
	"slices"

	"github.com/spf13/cobra"

	"github.com/arcward/edifact"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Print the segments of an interchange as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the invoice or order of an interchange as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(extractCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	ic, err := readInterchange(args[0])
	if err != nil {
		return err
	}
	segments := slices.Concat(
		[]*edifact.Segment{ic.Header()},
		ic.Body(),
		[]*edifact.Segment{ic.Trailer()},
	)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(segments)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ic, err := readInterchange(args[0])
	if err != nil {
		return err
	}
	msgType, err := ic.MessageType()
	if err != nil {
		return err
	}
	var doc any
	switch msgType {
	case edifact.MessageInvoice:
		doc, err = edifact.ExtractInvoice(ic)
	default:
		doc, err = edifact.ExtractOrder(ic)
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
