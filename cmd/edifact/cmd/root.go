package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arcward/edifact"
	"github.com/arcward/edifact/internal/config"
	"github.com/arcward/edifact/internal/logging"
)

var (
	cfgFile string
	envName string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "edifact",
	Short: "Read, validate and generate EDIFACT interchanges",
	Long: `edifact reads, validates and generates EDIFACT interchanges
(INVOIC, ORDERS, DESADV) and WAMAS fixed-width records.

Settings are read from the file given with --config (TOML or YAML),
or from the file named by EDIFACT_CONFIG, and can be overridden with
EDIFACT_* environment variables.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (.toml, .yaml)")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "logging environment: development or production")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}
	if envName != "" {
		cfg.Env = envName
	}
	logger = logging.New(logging.ParseEnv(cfg.Env))
	return nil
}

// readInterchange reads and parses an interchange file, accepting any
// message type
func readInterchange(path string) (*edifact.Interchange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return edifact.NewReader(edifact.WithAnyMessageType()).Read(data)
}

// countRule maps a --count flag value to a CountFunc
func countRule(name string) (edifact.CountFunc, error) {
	switch name {
	case "", "segments":
		return edifact.SegmentCount, nil
	case "invoice":
		return edifact.InvoiceCount, nil
	case "order":
		return edifact.OrderCount, nil
	default:
		return nil, fmt.Errorf("unknown count rule '%s': expected segments, invoice or order", name)
	}
}
