package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arcward/edifact/wamas"
)

var wamasCmd = &cobra.Command{
	Use:   "wamas <grammar> <values.yaml>",
	Short: "Encode WAMAS fixed-width records",
	Long: `Encodes one fixed-width record per entry of a YAML values file.

The grammar is either the name of a built-in grammar (ex: ARTE) or the
path of a grammar file (.toml, .yaml). The values file holds a list of
mappings from field keys to values, or a single mapping.

Examples:
  edifact wamas ARTE products.yaml
  edifact wamas ./grammars/lagp.toml locations.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runWamas,
}

func init() {
	rootCmd.AddCommand(wamasCmd)
}

func loadGrammar(name string) (*wamas.Grammar, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml", ".yaml", ".yml":
		return wamas.LoadGrammarFile(os.DirFS(filepath.Dir(name)), filepath.Base(name))
	default:
		return wamas.Builtin(name)
	}
}

func loadValues(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	var records []map[string]any
	if node.Content[0].Kind == yaml.SequenceNode {
		err = node.Content[0].Decode(&records)
	} else {
		var record map[string]any
		err = node.Content[0].Decode(&record)
		records = append(records, record)
	}
	return records, err
}

func runWamas(cmd *cobra.Command, args []string) error {
	g, err := loadGrammar(args[0])
	if err != nil {
		return err
	}
	records, err := loadValues(args[1])
	if err != nil {
		return err
	}
	enc := wamas.NewEncoder(wamas.DefaultFuncs(cfg.Wamas.Source, cfg.Wamas.Destination))
	out := cmd.OutOrStdout()
	for ind, values := range records {
		line, err := enc.Encode(g, values)
		if err != nil {
			return fmt.Errorf("record %d: %w", ind+1, err)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
