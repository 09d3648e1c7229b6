package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arcward/edifact"
	"github.com/arcward/edifact/internal/config"
	"github.com/arcward/edifact/internal/exchange"
)

var (
	processValidate bool
	processCount    string
)

var processCmd = &cobra.Command{
	Use:   "process [dir]",
	Short: "Process every inbound file",
	Long: `Reads every inbound file, extracts its invoice or order and prints
one JSON exchange record per file. Exits with an error if any file
failed.

Files are read from dir when given. Otherwise they come from the
configured transport: inbox_dir for "dir", attachments for "odoo".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().BoolVar(&processValidate, "validate", false, "validate envelopes before extraction")
	processCmd.Flags().StringVar(&processCount, "count", "segments", "UNT count rule when validating: segments, invoice, order")
}

// inboundTransport returns the transport process reads from
func inboundTransport(c *config.Config, args []string) (exchange.Transport, error) {
	if len(args) > 0 {
		return exchange.NewDirTransport(args[0]), nil
	}
	return newTransport(c, c.InboxDir)
}

func runProcess(cmd *cobra.Command, args []string) error {
	transport, err := inboundTransport(cfg, args)
	if err != nil {
		return err
	}
	defer closeTransport(transport)

	opts := []exchange.Option{
		exchange.WithLogger(logger),
		exchange.WithReader(edifact.NewReader()),
	}
	if processValidate {
		rule, err := countRule(processCount)
		if err != nil {
			return err
		}
		opts = append(opts, exchange.WithValidation(rule))
	}
	p := exchange.NewProcessor(opts...)

	records, err := p.ReceiveAll(cmd.Context(), transport)
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, rec := range records {
		if encErr := enc.Encode(rec); encErr != nil {
			return encErr
		}
	}
	if err != nil {
		logger.Warn("some files failed", zap.String("transport", cfg.Transport), zap.Error(err))
	}
	return err
}
