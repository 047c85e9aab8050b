// Package config defines the configuration model for the grocery sales ETL
// run. It replaces the fixed file-name literals of the first version with an
// explicit structure passed into the pipeline entry point.
//
// A Pipeline can be decoded from a JSON or YAML file; every field left out of
// the file keeps its default, and environment variables prefixed SALESETL_
// override both (see Load). With no file and no environment the defaults
// reproduce the original behavior:
//
//	{
//	  "job": "grocery_sales",
//	  "source": {
//	    "relational": { "locator": "grocery_sales.db", "table": "grocery_sales" },
//	    "columnar":   { "path": "extra_data.parquet" }
//	  },
//	  "output": { "cleaned": "clean_data.csv", "aggregate": "agg_data.csv" }
//	}
package config

// Default values used when neither the pipeline file nor the environment set
// a field.
const (
	DefaultJob              = "grocery_sales"
	DefaultLocator          = "grocery_sales.db"
	DefaultTable            = "grocery_sales"
	DefaultColumnarPath     = "extra_data.parquet"
	DefaultCleanedPath      = "clean_data.csv"
	DefaultAggregatePath    = "agg_data.csv"
	DefaultPushgatewayURL   = "http://localhost:9091"
	DefaultDatadogAddr      = "127.0.0.1:8125"
	DefaultMetricsBackend   = "none"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultDatadogNamespace = "salesetl."
)

// Pipeline is the top-level configuration of one ETL run.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job string `json:"job" yaml:"job"`

	// Source locates the two inputs.
	Source Source `json:"source" yaml:"source"`

	// Transform carries the few knobs the transform stage exposes. The
	// business rule itself (threshold, window) is fixed.
	Transform Transform `json:"transform" yaml:"transform"`

	// Output names the files the loader writes.
	Output Output `json:"output" yaml:"output"`

	// Metrics selects an optional metrics backend.
	Metrics Metrics `json:"metrics" yaml:"metrics"`

	// Log configures the structured logger.
	Log Log `json:"log" yaml:"log"`
}

// Source groups the relational and columnar inputs.
type Source struct {
	Relational Relational `json:"relational" yaml:"relational"`
	Columnar   Columnar   `json:"columnar" yaml:"columnar"`
}

// Relational locates the sales table.
type Relational struct {
	// Locator is a SQLite file path (or file: URI), or a postgres:// or
	// sqlserver:// connection URL.
	Locator string `json:"locator" yaml:"locator"`

	// Table is the table read with SELECT *. Defaults to grocery_sales.
	Table string `json:"table" yaml:"table"`
}

// Columnar locates the parquet file with per-store attributes.
type Columnar struct {
	Path string `json:"path" yaml:"path"`
}

// Transform holds transform-stage options.
type Transform struct {
	// StrictSchema makes projection fail with a schema error when CPI or
	// Unemployment is absent, instead of emitting an all-missing column.
	StrictSchema bool `json:"strict_schema" yaml:"strict_schema" split_words:"true"`
}

// Output names the files written by the loader.
type Output struct {
	// Cleaned is the primary output (clean_data.csv).
	Cleaned string `json:"cleaned" yaml:"cleaned"`

	// Aggregate is the monthly average output (agg_data.csv).
	Aggregate string `json:"aggregate" yaml:"aggregate"`

	// Report optionally names an .xlsx workbook holding both tables.
	// Empty disables it.
	Report string `json:"report" yaml:"report"`
}

// Metrics selects and configures the metrics backend.
type Metrics struct {
	// Backend is one of "none", "pushgateway", "datadog".
	Backend string `json:"backend" yaml:"backend"`

	// PushgatewayURL is the Pushgateway base URL for the pushgateway backend.
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url" split_words:"true"`

	// DatadogAddr is the DogStatsD address for the datadog backend.
	DatadogAddr string `json:"datadog_addr" yaml:"datadog_addr" split_words:"true"`

	// Namespace prefixes Datadog metric names.
	Namespace string `json:"namespace" yaml:"namespace"`
}

// Log configures the logger.
type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Defaults returns a Pipeline populated with the default values.
func Defaults() Pipeline {
	return Pipeline{
		Job: DefaultJob,
		Source: Source{
			Relational: Relational{Locator: DefaultLocator, Table: DefaultTable},
			Columnar:   Columnar{Path: DefaultColumnarPath},
		},
		Output: Output{
			Cleaned:   DefaultCleanedPath,
			Aggregate: DefaultAggregatePath,
		},
		Metrics: Metrics{
			Backend:        DefaultMetricsBackend,
			PushgatewayURL: DefaultPushgatewayURL,
			DatadogAddr:    DefaultDatadogAddr,
			Namespace:      DefaultDatadogNamespace,
		},
		Log: Log{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}
