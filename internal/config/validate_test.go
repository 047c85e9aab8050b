package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func TestValidatePipeline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(p *Pipeline)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"empty job", func(p *Pipeline) { p.Job = " " }, SeverityError, "job", "must not be empty"},
		{"empty locator", func(p *Pipeline) { p.Source.Relational.Locator = "" }, SeverityError, "source.relational.locator", "must not be empty"},
		{"unknown scheme", func(p *Pipeline) { p.Source.Relational.Locator = "mysql://u@h/db" }, SeverityError, "source.relational.locator", `"mysql"`},
		{"empty table", func(p *Pipeline) { p.Source.Relational.Table = "" }, SeverityError, "source.relational.table", "must not be empty"},
		{"injected table", func(p *Pipeline) { p.Source.Relational.Table = "t; DROP TABLE t" }, SeverityError, "source.relational.table", "identifier"},
		{"empty columnar", func(p *Pipeline) { p.Source.Columnar.Path = "" }, SeverityError, "source.columnar.path", "must not be empty"},
		{"columnar extension", func(p *Pipeline) { p.Source.Columnar.Path = "extra.bin" }, SeverityWarning, "source.columnar.path", ".parquet"},
		{"empty cleaned", func(p *Pipeline) { p.Output.Cleaned = "" }, SeverityError, "output.cleaned", "must not be empty"},
		{"aggregate extension", func(p *Pipeline) { p.Output.Aggregate = "agg.txt" }, SeverityWarning, "output.aggregate", ".csv"},
		{"same outputs", func(p *Pipeline) { p.Output.Aggregate = "./clean_data.csv" }, SeverityError, "output.aggregate", "must differ"},
		{"report extension", func(p *Pipeline) { p.Output.Report = "report.csv" }, SeverityError, "output.report", ".xlsx"},
		{"pushgateway url", func(p *Pipeline) {
			p.Metrics.Backend = "pushgateway"
			p.Metrics.PushgatewayURL = "localhost:9091"
		}, SeverityError, "metrics.pushgateway_url", "http(s)"},
		{"datadog addr", func(p *Pipeline) {
			p.Metrics.Backend = "datadog"
			p.Metrics.DatadogAddr = "localhost"
		}, SeverityError, "metrics.datadog_addr", "host:port"},
		{"unknown backend", func(p *Pipeline) { p.Metrics.Backend = "graphite" }, SeverityWarning, "metrics.backend", "disabled"},
		{"log level", func(p *Pipeline) { p.Log.Level = "verbose" }, SeverityError, "log.level", "verbose"},
		{"log format", func(p *Pipeline) { p.Log.Format = "xml" }, SeverityError, "log.format", "xml"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := Defaults()
			tt.mutate(&p)
			issues := ValidatePipeline(p)
			assert.True(t, hasIssue(t, issues, tt.sev, tt.path, tt.msg), "issues: %+v", issues)
			assert.Equal(t, tt.sev == SeverityError, HasErrors(issues))
		})
	}
}

func TestValidatePipelineAcceptsSupportedLocators(t *testing.T) {
	t.Parallel()

	for _, loc := range []string{
		"grocery_sales.db",
		"file:grocery_sales.db?mode=ro",
		"postgres://u:p@localhost:5432/sales",
		"postgresql://localhost/sales",
		"sqlserver://sa:pw@localhost?database=sales",
	} {
		p := Defaults()
		p.Source.Relational.Locator = loc
		assert.Empty(t, ValidatePipeline(p), loc)
	}
}

func TestValidatePipelineMetricsBackends(t *testing.T) {
	t.Parallel()

	p := Defaults()
	p.Metrics.Backend = "datadog"
	assert.Empty(t, ValidatePipeline(p))

	p.Metrics.DatadogAddr = "unix:///var/run/datadog/dsd.socket"
	assert.Empty(t, ValidatePipeline(p))

	p.Metrics.Backend = "pushgateway"
	assert.Empty(t, ValidatePipeline(p))
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityWarning, Path: "output.cleaned", Message: "x"}
	assert.Equal(t, "warning at output.cleaned: x", iss.Error())
	assert.False(t, HasErrors([]Issue{iss}))
	assert.False(t, HasErrors(nil))
}
