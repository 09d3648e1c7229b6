package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arcward/edifact"
)

var errInvalid = errors.New("interchange is invalid")

var validateCount string

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check the UNB/UNZ and UNH/UNT envelopes of an interchange",
	Long: `Checks the envelopes of an interchange: required UNB elements,
matching control references, the UNZ message count and the UNT
segment count.

The UNT count rule is selected with --count:
  segments  number of segments from UNH to UNT (default)
  invoice   37 + 11 per line + 2 per tax rate
  order     33 + 11 per line + 2 per tax rate`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateCount, "count", "segments", "UNT count rule: segments, invoice, order")
}

func runValidate(cmd *cobra.Command, args []string) error {
	rule, err := countRule(validateCount)
	if err != nil {
		return err
	}
	ic, err := readInterchange(args[0])
	if err != nil {
		return err
	}
	v := edifact.NewValidator(cmd.Context(), ic, edifact.WithCountRule(rule))
	if v.Validate() == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
		return nil
	}
	for _, e := range v.ErrorList() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], e.Error())
	}
	return errInvalid
}
