package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g.
// SALESETL_SOURCE_RELATIONAL_LOCATOR or SALESETL_METRICS_PUSHGATEWAY_URL.
const EnvPrefix = "SALESETL"

// Load builds the run configuration. It starts from Defaults, decodes the
// pipeline file at path over it when path is non-empty, then applies
// SALESETL_* environment overrides. Unknown keys in the file are rejected.
func Load(path string) (Pipeline, error) {
	p := Defaults()
	if path != "" {
		if err := decodeFile(path, &p); err != nil {
			return Pipeline{}, err
		}
	}
	if err := ApplyEnv(&p); err != nil {
		return Pipeline{}, err
	}
	return p, nil
}

// ApplyEnv overrides fields of p from SALESETL_* environment variables.
func ApplyEnv(p *Pipeline) error {
	if err := envconfig.Process(EnvPrefix, p); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment without overriding variables that are already set. An empty
// path is a no-op.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: env file %s: %w", path, err)
	}
	return nil
}

// Decode reads a pipeline document from r over p. format is "json" or
// "yaml".
func Decode(r io.Reader, format string, p *Pipeline) error {
	switch format {
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(p); err != nil {
			return fmt.Errorf("config: decode json: %w", err)
		}
	case "yaml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("config: decode yaml: %w", err)
		}
	default:
		return fmt.Errorf("config: unsupported format %q", format)
	}
	return nil
}

func decodeFile(path string, p *Pipeline) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	if err := Decode(bytes.NewReader(b), formatOf(path), p); err != nil {
		return fmt.Errorf("%w (file %s)", err, path)
	}
	return nil
}

// formatOf picks the decoder from the file extension; anything that is not
// .yaml or .yml is read as JSON.
func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
