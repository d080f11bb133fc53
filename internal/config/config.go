// Package config holds the studentetl configuration model: a JSON or YAML
// file overlaid by STUDENTETL_* environment variables, plus the Options bag
// used for free-form parser settings.
//
// Example (JSON):
//
//	{
//	  "job": "registrar-2024",
//	  "parser":   { "delimiter": ";", "encoding": "windows-1252" },
//	  "pipeline": { "workers": 4, "dedupe": "keep-first", "dedupe_keys": ["dept", "batch"] },
//	  "metrics":  { "backend": "pushgateway", "pushgateway_url": "http://pgw:9091" }
//	}
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. STUDENTETL_SERVER_ADDR.
const EnvPrefix = "STUDENTETL"

// Config is the top-level configuration.
type Config struct {
	// Job labels metrics and log lines.
	Job string `json:"job" yaml:"job" envconfig:"JOB"`

	Parser   Parser   `json:"parser" yaml:"parser" envconfig:"PARSER"`
	Pipeline Pipeline `json:"pipeline" yaml:"pipeline" envconfig:"PIPELINE"`
	Export   Export   `json:"export" yaml:"export" envconfig:"EXPORT"`
	Metrics  Metrics  `json:"metrics" yaml:"metrics" envconfig:"METRICS"`
	Logging  Logging  `json:"logging" yaml:"logging" envconfig:"LOGGING"`
	Server   Server   `json:"server" yaml:"server" envconfig:"SERVER"`
}

// Parser configures how uploads are read.
type Parser struct {
	// Kind forces "csv" or "xlsx"; empty picks by file extension.
	Kind       string `json:"kind" yaml:"kind" envconfig:"KIND" validate:"omitempty,oneof=csv xlsx"`
	Delimiter  string `json:"delimiter" yaml:"delimiter" envconfig:"DELIMITER" validate:"omitempty,len=1"`
	Encoding   string `json:"encoding" yaml:"encoding" envconfig:"ENCODING"`
	LazyQuotes bool   `json:"lazy_quotes" yaml:"lazy_quotes" envconfig:"LAZY_QUOTES"`
	TrimSpace  bool   `json:"trim_space" yaml:"trim_space" envconfig:"TRIM_SPACE"`
	Sheet      string `json:"sheet" yaml:"sheet" envconfig:"SHEET"`

	// Options carries extra reader settings; the typed fields above win.
	Options Options `json:"options" yaml:"options" ignored:"true"`
}

// Bag merges the typed parser fields over Options into the key set the
// readers understand: comma, encoding, lazy_quotes, trim_space, sheet.
func (p Parser) Bag() Options {
	bag := make(Options, len(p.Options)+5)
	for k, v := range p.Options {
		bag[k] = v
	}
	if p.Delimiter != "" {
		bag["comma"] = p.Delimiter
	}
	if p.Encoding != "" {
		bag["encoding"] = p.Encoding
	}
	if p.LazyQuotes {
		bag["lazy_quotes"] = true
	}
	if p.TrimSpace {
		bag["trim_space"] = true
	}
	if p.Sheet != "" {
		bag["sheet"] = p.Sheet
	}
	return bag
}

// Pipeline configures the cleaning run.
type Pipeline struct {
	// Workers bounds per-row parallelism; 0 or 1 runs sequentially.
	Workers int `json:"workers" yaml:"workers" envconfig:"WORKERS" validate:"gte=0,lte=1024"`

	// Dedupe is keep-first, keep-last, most-complete or none.
	Dedupe string `json:"dedupe" yaml:"dedupe" envconfig:"DEDUPE" validate:"omitempty,oneof=none keep-first keep-last most-complete"`

	// DedupeKeys names the columns that identify a student, e.g. dept and
	// batch. Empty compares whole rows.
	DedupeKeys []string `json:"dedupe_keys,omitempty" yaml:"dedupe_keys,omitempty" envconfig:"DEDUPE_KEYS"`

	DefaultUniversity string `json:"default_university" yaml:"default_university" envconfig:"DEFAULT_UNIVERSITY"`
}

// Export configures cleaned-data downloads.
type Export struct {
	Format string `json:"format" yaml:"format" envconfig:"FORMAT" validate:"oneof=csv json xlsx"`

	// BOM prefixes CSV output with a UTF-8 byte-order mark for Excel.
	BOM bool `json:"bom" yaml:"bom" envconfig:"BOM"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	Backend        string `json:"backend" yaml:"backend" envconfig:"BACKEND" validate:"oneof=none prometheus pushgateway datadog"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url" envconfig:"PUSHGATEWAY_URL" validate:"omitempty,url"`
	DatadogAddr    string `json:"datadog_addr" yaml:"datadog_addr" envconfig:"DATADOG_ADDR" validate:"omitempty,hostname_port"`
	Namespace      string `json:"namespace" yaml:"namespace" envconfig:"NAMESPACE"`
}

// Logging configures the slog handler.
type Logging struct {
	Level  string `json:"level" yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
}

// Server configures the HTTP API.
type Server struct {
	Addr            string        `json:"addr" yaml:"addr" envconfig:"ADDR" validate:"required"`
	MaxUploadBytes  int64         `json:"max_upload_bytes" yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Job:      "studentetl",
		Pipeline: Pipeline{Workers: 1, Dedupe: "none"},
		Export:   Export{Format: "csv"},
		Metrics:  Metrics{Backend: "none"},
		Logging:  Logging{Level: "info", Format: "text"},
		Server: Server{
			Addr:            ":8080",
			MaxUploadBytes:  32 << 20,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load returns Default overlaid by the file at path (skipped when path is
// empty) and then by environment variables. Unknown file keys are errors.
// Load does not validate; call Validate on the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := decode(path, b, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("config from env: %w", err)
	}
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		return dec.Decode(cfg)
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	}
}
