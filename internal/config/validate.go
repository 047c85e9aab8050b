package config

// This file holds a lightweight linter for Pipeline values. It performs
// static checks only (no file or network access) and returns the findings so
// the CLI can print them.

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/datasource/relational"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/logger"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "source.relational.locator").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline lints p. It does not mutate p.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels logs and metrics",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateOutput(p.Output)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	issues = append(issues, validateLog(p.Log)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	loc := strings.TrimSpace(s.Relational.Locator)
	if loc == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.relational.locator",
			Message:  "source.relational.locator must not be empty",
		})
	} else if _, err := relational.Resolve(loc); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.relational.locator",
			Message:  fmt.Sprintf("unsupported locator scheme %q; known schemes: %v", relational.Scheme(loc), relational.Schemes()),
		})
	}

	switch table := s.Relational.Table; {
	case strings.TrimSpace(table) == "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.relational.table",
			Message:  "source.relational.table must not be empty",
		})
	case !relational.ValidTable(table):
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.relational.table",
			Message:  fmt.Sprintf("table %q is not a plain or schema-qualified identifier", table),
		})
	}

	path := strings.TrimSpace(s.Columnar.Path)
	if path == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.columnar.path",
			Message:  "source.columnar.path must not be empty",
		})
	} else if !hasExt(path, ".parquet") {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.columnar.path",
			Message:  fmt.Sprintf("%s does not end in .parquet; it will still be read as parquet", path),
		})
	}

	return issues
}

func validateOutput(o Output) []Issue {
	var issues []Issue

	outputs := []struct {
		path, value string
	}{
		{"output.cleaned", o.Cleaned},
		{"output.aggregate", o.Aggregate},
	}
	for _, out := range outputs {
		if strings.TrimSpace(out.value) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     out.path,
				Message:  out.path + " must not be empty",
			})
			continue
		}
		if !hasExt(out.value, ".csv") {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     out.path,
				Message:  fmt.Sprintf("%s does not end in .csv; the content is CSV regardless", out.value),
			})
		}
	}

	if o.Cleaned != "" && samePath(o.Cleaned, o.Aggregate) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.aggregate",
			Message:  "output.aggregate must differ from output.cleaned; the aggregate would overwrite the cleaned table",
		})
	}

	if o.Report != "" {
		if !hasExt(o.Report, ".xlsx") {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.report",
				Message:  fmt.Sprintf("report %s must end in .xlsx", o.Report),
			})
		}
		if samePath(o.Report, o.Cleaned) || samePath(o.Report, o.Aggregate) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.report",
				Message:  "output.report must differ from the CSV outputs",
			})
		}
	}

	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch strings.ToLower(strings.TrimSpace(m.Backend)) {
	case "", "none":
	case "pushgateway":
		u, err := url.Parse(m.PushgatewayURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  fmt.Sprintf("pushgateway backend needs an http(s) URL, got %q", m.PushgatewayURL),
			})
		}
	case "datadog":
		if !validStatsdAddr(m.DatadogAddr) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  fmt.Sprintf("datadog backend needs host:port or unix:///path, got %q", m.DatadogAddr),
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", m.Backend),
		})
	}

	return issues
}

func validateLog(l Log) []Issue {
	var issues []Issue

	if _, err := logger.ParseLevel(l.Level); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "log.level",
			Message:  fmt.Sprintf("unknown log level %q; use debug, info, warn or error", l.Level),
		})
	}
	switch strings.ToLower(strings.TrimSpace(l.Format)) {
	case "", "json", "text", "human":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "log.format",
			Message:  fmt.Sprintf("unknown log format %q; use json or text", l.Format),
		})
	}

	return issues
}

func hasExt(path, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), ext)
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

func validStatsdAddr(addr string) bool {
	if strings.HasPrefix(addr, "unix://") {
		return len(addr) > len("unix://")
	}
	_, port, err := net.SplitHostPort(addr)
	return err == nil && port != ""
}
