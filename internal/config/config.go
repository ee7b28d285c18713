// Package config provides configuration management for go-bbdiversity.
package config

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var AppVersion = "-unset-" // will be set at build time

const (
	// Default web settings
	DefaultListenPort   = 11980
	DefaultTemplatesDir = "web/templates"
	DefaultStaticDir    = "web/static"

	// Default dataset settings
	DefaultDatabasePath  = "data/belly_button_biodiversity.sqlite"
	DefaultSamplesTable  = "samples"
	DefaultOTUTable      = "otu"
	DefaultMetadataTable = "samples_metadata"
	DefaultMaxOpenConns  = 8
)

// MainConfig holds the main configuration for go-bbdiversity
type MainConfig struct {
	// Web interface settings
	Web *WebConfig `yaml:"web"`

	// Dataset settings
	Database *DatabaseConfig `yaml:"database"`
}

// WebConfig holds web interface configuration
type WebConfig struct {
	ListenPort   int    `yaml:"listen_port"`
	SSL          bool   `yaml:"ssl"`
	CertFile     string `yaml:"cert_file,omitempty"`
	KeyFile      string `yaml:"key_file,omitempty"`
	TemplatesDir string `yaml:"templates_dir"`
	StaticDir    string `yaml:"static_dir"`
	AccessLog    bool   `yaml:"access_log"`
	// StrictErrors answers an unknown sample on /samples with a 404 JSON error
	// object instead of the legacy 200 JSON string.
	StrictErrors bool `yaml:"strict_errors"`
}

// DatabaseConfig holds the location and layout of the read-only dataset
type DatabaseConfig struct {
	Path          string `yaml:"path"`
	SamplesTable  string `yaml:"samples_table"`
	OTUTable      string `yaml:"otu_table"`
	MetadataTable string `yaml:"metadata_table"`
	MaxOpenConns  int    `yaml:"max_open_conns"`
	Watch         bool   `yaml:"watch"` // reopen the store when the file is replaced
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *MainConfig {
	maincfg := &MainConfig{
		Web: &WebConfig{
			ListenPort:   DefaultListenPort,
			TemplatesDir: DefaultTemplatesDir,
			StaticDir:    DefaultStaticDir,
			AccessLog:    true,
		},
		Database: &DatabaseConfig{
			Path:          DefaultDatabasePath,
			SamplesTable:  DefaultSamplesTable,
			OTUTable:      DefaultOTUTable,
			MetadataTable: DefaultMetadataTable,
			MaxOpenConns:  DefaultMaxOpenConns,
		},
	}
	return maincfg
}

// Load reads the YAML file at path on top of the defaults and validates the result.
// Keys missing from the file keep their default values.
func Load(path string) (*MainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %q", path)
	}

	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "config: parse yaml")
	}
	// an explicit `web:` or `database:` key with no body decodes to nil
	defaults := NewDefaultConfig()
	if cfg.Web == nil {
		cfg.Web = defaults.Web
	}
	if cfg.Database == nil {
		cfg.Database = defaults.Database
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config")
	}

	log.Printf("[CONFIG] loaded %s (port=%d db=%s)", path, cfg.Web.ListenPort, cfg.Database.Path)
	return cfg, nil
}

// Validate checks structural constraints on the configuration.
func (cfg *MainConfig) Validate() error {
	if cfg.Web.ListenPort < 1024 || cfg.Web.ListenPort > 65535 {
		return errors.Errorf("web.listen_port %d is out of range [1024, 65535]", cfg.Web.ListenPort)
	}
	if cfg.Web.SSL && (cfg.Web.CertFile == "" || cfg.Web.KeyFile == "") {
		return errors.New("web.ssl enabled but cert_file or key_file not specified")
	}
	if cfg.Database.Path == "" {
		return errors.New("database.path must be set")
	}
	for key, table := range map[string]string{
		"database.samples_table":  cfg.Database.SamplesTable,
		"database.otu_table":      cfg.Database.OTUTable,
		"database.metadata_table": cfg.Database.MetadataTable,
	} {
		if table == "" {
			return errors.Errorf("%s must not be empty", key)
		}
	}
	if cfg.Database.MaxOpenConns < 0 {
		return errors.Errorf("database.max_open_conns must not be negative")
	}
	return nil
}
