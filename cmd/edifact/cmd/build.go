package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/arcward/edifact"
	"github.com/arcward/edifact/internal/config"
	"github.com/arcward/edifact/internal/exchange"
	"github.com/arcward/edifact/internal/odoo"
)

// controlReferenceLength is the maximum length of the interchange
// control reference (0020)
const controlReferenceLength = 14

var (
	buildRecipient string
	buildReference string
	buildUNA       bool
	buildSend      bool
	buildFilename  string
)

var buildCmd = &cobra.Command{
	Use:   "build <invoice|order> <document.yaml>",
	Short: "Generate an INVOIC or ORDERS interchange from a YAML document",
	Long: `Generates an interchange from a YAML document, using the sender
and syntax identifier from the configuration.

The interchange is printed, or with --send delivered through the
configured transport (outbox_dir, or Odoo attachments).

Examples:
  edifact build invoice invoice.yaml --recipient 5498765000019:14
  edifact build order order.yaml --recipient 5498765000019 --send`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"invoice", "order"},
	RunE:      runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVar(&buildRecipient, "recipient", "", "recipient party as ID[:qualifier]")
	buildCmd.Flags().StringVar(&buildReference, "reference", "", "interchange control reference (default: generated)")
	buildCmd.Flags().BoolVar(&buildUNA, "una", false, "prefix the interchange with a UNA service string advice")
	buildCmd.Flags().BoolVar(&buildSend, "send", false, "deliver through the configured transport")
	buildCmd.Flags().StringVar(&buildFilename, "filename", "", "file name used with --send (default: <reference>.edi)")
	_ = buildCmd.MarkFlagRequired("recipient")
}

func parseParty(s string) edifact.Party {
	id, qualifier, found := strings.Cut(s, ":")
	if !found {
		qualifier = "14"
	}
	return edifact.Party{ID: id, Qualifier: qualifier}
}

// newControlReference derives a control reference from a random UUID
func newControlReference() string {
	ref := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return ref[:controlReferenceLength]
}

func buildInterchange(kind string, data []byte) (*edifact.Interchange, error) {
	ref := buildReference
	if ref == "" {
		ref = newControlReference()
	}
	var opts []edifact.InterchangeOption
	if buildUNA {
		opts = append(opts, edifact.WithServiceAdvice())
	}
	ic := edifact.NewInterchange(
		cfg.SenderParty(),
		parseParty(buildRecipient),
		ref,
		cfg.SyntaxIdentifier(),
		opts...,
	)
	switch kind {
	case "invoice":
		var doc edifact.InvoiceDocument
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		edifact.BuildInvoice(ic, doc)
	case "order":
		var doc edifact.OrderDocument
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		edifact.BuildOrder(ic, doc)
	default:
		return nil, fmt.Errorf("unknown document kind '%s': expected invoice or order", kind)
	}
	return ic, nil
}

// newTransport returns the transport selected by the configuration.
// The directory transport reads and writes dir.
func newTransport(c *config.Config, dir string) (exchange.Transport, error) {
	switch c.Transport {
	case config.TransportOdoo:
		return odoo.New(
			c.Odoo.URL, c.Odoo.DB, c.Odoo.Username, c.Odoo.Password,
			odoo.WithLogger(logger),
			odoo.WithTimeout(c.Odoo.Timeout.Duration),
		)
	default:
		return exchange.NewDirTransport(dir), nil
	}
}

// closeTransport closes transports holding a connection
func closeTransport(t exchange.Transport) {
	if closer, ok := t.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("failed to close transport", zap.Error(err))
		}
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	if cfg.Sender.ID == "" {
		return fmt.Errorf("%w: sender.id is required", config.ErrInvalid)
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	ic, err := buildInterchange(args[0], data)
	if err != nil {
		return err
	}

	if !buildSend {
		text, err := ic.Serialize()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	transport, err := newTransport(cfg, cfg.OutboxDir)
	if err != nil {
		return err
	}
	defer closeTransport(transport)
	filename := buildFilename
	if filename == "" {
		filename = ic.Reference() + ".edi"
	}
	p := exchange.NewProcessor(
		exchange.WithLogger(logger),
		exchange.WithTransport(transport),
	)
	rec, err := p.Send(cmd.Context(), filename, ic)
	if err != nil {
		return err
	}
	logger.Info("sent interchange", zap.String("record", rec.ID.String()), zap.String("filename", filename))
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", rec.ID, rec.State, filename)
	return nil
}
