// Package config loads the settings shared by the edifact command and the
// exchange processor.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/arcward/edifact"
)

// EnvPrefix prefixes the environment variables which override file
// settings
const EnvPrefix = "EDIFACT_"

const (
	TransportDir  = "dir"
	TransportOdoo = "odoo"
)

var (
	ErrNotFound          = errors.New("config file not found")
	ErrUnsupportedFormat = errors.New("unsupported config format")
	ErrInvalid           = errors.New("invalid config")
)

// Config holds the complete application configuration
type Config struct {
	Env       string       `toml:"env" yaml:"env"`
	Sender    PartyConfig  `toml:"sender" yaml:"sender"`
	Syntax    SyntaxConfig `toml:"syntax" yaml:"syntax"`
	Transport string       `toml:"transport" yaml:"transport"`
	InboxDir  string       `toml:"inbox_dir" yaml:"inbox_dir"`
	OutboxDir string       `toml:"outbox_dir" yaml:"outbox_dir"`
	Odoo      OdooConfig   `toml:"odoo" yaml:"odoo"`
	Wamas     WamasConfig  `toml:"wamas" yaml:"wamas"`
}

// PartyConfig identifies the local interchange party
type PartyConfig struct {
	ID        string `toml:"id" yaml:"id"`
	Qualifier string `toml:"qualifier" yaml:"qualifier"`
}

// SyntaxConfig holds the syntax identifier written in UNB
type SyntaxConfig struct {
	ID      string `toml:"id" yaml:"id"`
	Version string `toml:"version" yaml:"version"`
}

// OdooConfig holds the XML-RPC connection settings
type OdooConfig struct {
	URL      string   `toml:"url" yaml:"url"`
	DB       string   `toml:"db" yaml:"db"`
	Username string   `toml:"username" yaml:"username"`
	Password string   `toml:"password" yaml:"password"`
	Timeout  Duration `toml:"timeout" yaml:"timeout"`
}

// WamasConfig holds the telegram endpoints used by the grammar codec
type WamasConfig struct {
	Source      string `toml:"source" yaml:"source"`
	Destination string `toml:"destination" yaml:"destination"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML (.toml) or YAML (.yaml, .yml)
// file, then applies defaults and EDIFACT_* environment overrides
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedFormat, filepath.Ext(path))
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// LoadFromEnv loads the file named by EDIFACT_CONFIG. Without it, the
// defaults are used, still subject to environment overrides.
func LoadFromEnv() (*Config, error) {
	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		return Load(path)
	}
	cfg := Default()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = "production"
	}
	if c.Syntax.ID == "" {
		c.Syntax.ID = "UNOC"
	}
	if c.Syntax.Version == "" {
		c.Syntax.Version = "3"
	}
	if c.Sender.Qualifier == "" {
		c.Sender.Qualifier = "14"
	}
	if c.Transport == "" {
		c.Transport = TransportDir
	}
	if c.InboxDir == "" {
		c.InboxDir = "./inbox"
	}
	if c.OutboxDir == "" {
		c.OutboxDir = "./outbox"
	}
	if c.Odoo.Timeout.Duration == 0 {
		c.Odoo.Timeout.Duration = 30 * time.Second
	}
	if c.Wamas.Source == "" {
		c.Wamas.Source = "ODOO"
	}
	if c.Wamas.Destination == "" {
		c.Wamas.Destination = "WAMAS"
	}
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"ENV":              &c.Env,
		"SENDER_ID":        &c.Sender.ID,
		"SENDER_QUALIFIER": &c.Sender.Qualifier,
		"TRANSPORT":        &c.Transport,
		"INBOX_DIR":        &c.InboxDir,
		"OUTBOX_DIR":       &c.OutboxDir,
		"ODOO_URL":         &c.Odoo.URL,
		"ODOO_DB":          &c.Odoo.DB,
		"ODOO_USERNAME":    &c.Odoo.Username,
		"ODOO_PASSWORD":    &c.Odoo.Password,
	}
	for name, field := range overrides {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*field = v
		}
	}
}

// Validate reports every invalid setting
func (c *Config) Validate() error {
	var errs []error
	if c.Sender.ID == "" {
		errs = append(errs, fmt.Errorf("%w: sender.id is required", ErrInvalid))
	}
	if c.Syntax.ID == "" || c.Syntax.Version == "" {
		errs = append(errs, fmt.Errorf("%w: syntax id and version are required", ErrInvalid))
	}
	switch c.Transport {
	case TransportDir:
		if c.InboxDir == "" || c.OutboxDir == "" {
			errs = append(errs, fmt.Errorf("%w: inbox_dir and outbox_dir are required", ErrInvalid))
		}
	case TransportOdoo:
		if c.Odoo.URL == "" {
			errs = append(errs, fmt.Errorf("%w: odoo.url is required", ErrInvalid))
		}
		if c.Odoo.DB == "" {
			errs = append(errs, fmt.Errorf("%w: odoo.db is required", ErrInvalid))
		}
		if c.Odoo.Username == "" {
			errs = append(errs, fmt.Errorf("%w: odoo.username is required", ErrInvalid))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown transport '%s'", ErrInvalid, c.Transport))
	}
	return errors.Join(errs...)
}

// SenderParty returns the configured sender as an interchange party
func (c *Config) SenderParty() edifact.Party {
	return edifact.Party{ID: c.Sender.ID, Qualifier: c.Sender.Qualifier}
}

// SyntaxIdentifier returns the configured UNB syntax identifier
func (c *Config) SyntaxIdentifier() edifact.SyntaxIdentifier {
	return edifact.SyntaxIdentifier{ID: c.Syntax.ID, Version: c.Syntax.Version}
}
