// Package config loads runtime settings for the matching server and CLI
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/honeycarbs/dpe-match/internal/domain/matching"
)

const (
	// EnvPrefix prefixes every environment override, e.g. DPE_ADEME__BASE_URL
	EnvPrefix = "DPE_"
	// EnvConfigPath names an optional YAML file layered under the environment
	EnvConfigPath = "DPE_CONFIG"
)

// Config contains runtime settings for the MCP server and the CLI
type Config struct {
	LogLevel string `koanf:"log_level"`
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`

	Ademe struct {
		BaseURL         string        `koanf:"base_url"`
		Dataset         string        `koanf:"dataset"`
		ResultCap       int           `koanf:"result_cap"`
		PostalResultCap int           `koanf:"postal_result_cap"`
		RequestTimeout  time.Duration `koanf:"request_timeout"`
	} `koanf:"ademe"`

	Matching matching.Weights `koanf:"matching"`

	// Neo4j is optional; decisions are not persisted when URI is empty
	Neo4j struct {
		URI      string `koanf:"uri"`
		Username string `koanf:"username"`
		Password string `koanf:"password"`
		Database string `koanf:"database"`
	} `koanf:"neo4j"`

	// Sheets is optional; export is disabled when SpreadsheetID is empty
	Sheets struct {
		CredentialsPath string `koanf:"credentials_path"`
		SpreadsheetID   string `koanf:"spreadsheet_id"`
		Tab             string `koanf:"tab"`
	} `koanf:"sheets"`
}

// New returns a Config holding the defaults
func New() *Config {
	cfg := &Config{
		LogLevel: "info",
		Host:     "0.0.0.0",
		Port:     "8080",
		Matching: matching.DefaultWeights(),
	}
	cfg.Ademe.BaseURL = "https://data.ademe.fr"
	cfg.Ademe.Dataset = "dpe03existant"
	cfg.Ademe.ResultCap = 50
	cfg.Ademe.PostalResultCap = 200
	cfg.Ademe.RequestTimeout = 10 * time.Second
	cfg.Sheets.Tab = "Candidates"
	return cfg
}

// Load layers defaults, an optional YAML file and DPE_ environment variables,
// in that order; path wins over DPE_CONFIG when both are set
// Nested keys use a double underscore: DPE_NEO4J__URI sets neo4j.uri
func Load(path string) (*Config, error) {
	cfg := New()
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("port must not be empty"))
	}
	if u, err := url.Parse(c.Ademe.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("ademe.base_url %q is not an absolute URL", c.Ademe.BaseURL))
	}
	if c.Ademe.Dataset == "" {
		errs = append(errs, errors.New("ademe.dataset must not be empty"))
	}
	if c.Ademe.ResultCap <= 0 || c.Ademe.PostalResultCap <= 0 {
		errs = append(errs, errors.New("ademe result caps must be positive"))
	}
	if c.Ademe.RequestTimeout <= 0 {
		errs = append(errs, errors.New("ademe.request_timeout must be positive"))
	}
	if err := c.Matching.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Neo4j.URI != "" && (c.Neo4j.Username == "" || c.Neo4j.Password == "") {
		errs = append(errs, errors.New("neo4j.username and neo4j.password are required when neo4j.uri is set"))
	}
	if c.Sheets.SpreadsheetID != "" && c.Sheets.CredentialsPath == "" {
		errs = append(errs, errors.New("sheets.credentials_path is required when sheets.spreadsheet_id is set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// PersistenceEnabled reports whether a Neo4j database is configured
func (c *Config) PersistenceEnabled() bool {
	return c.Neo4j.URI != ""
}

// ExportEnabled reports whether a spreadsheet is configured
func (c *Config) ExportEnabled() bool {
	return c.Sheets.SpreadsheetID != ""
}
