package config

import (
	"strings"
	"testing"
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

func TestValidate_DefaultIsClean(t *testing.T) {
	t.Parallel()
	if issues := Validate(Default()); len(issues) != 0 {
		t.Fatalf("Default() issues: %+v", issues)
	}
}

/*
TestValidate_Cases mutates the default config one field at a time and checks
the expected finding is reported at the right path.
*/
func TestValidate_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"empty_job", func(c *Config) { c.Job = " " }, SeverityError, "job", "must not be empty"},
		{"parser_kind", func(c *Config) { c.Parser.Kind = "ods" }, SeverityError, "parser.kind", `"ods" is not one of [csv xlsx]`},
		{"long_delimiter", func(c *Config) { c.Parser.Delimiter = ";;" }, SeverityError, "parser.delimiter", "exactly 1"},
		{"quote_delimiter", func(c *Config) { c.Parser.Delimiter = `"` }, SeverityError, "parser.delimiter", "cannot be a delimiter"},
		{"unknown_encoding", func(c *Config) { c.Parser.Encoding = "klingon" }, SeverityError, "parser.encoding", "unknown encoding"},
		{"xlsx_ignores_encoding", func(c *Config) {
			c.Parser.Kind = "xlsx"
			c.Parser.Encoding = "latin1"
		}, SeverityWarning, "parser.encoding", "ignored for xlsx"},
		{"negative_workers", func(c *Config) { c.Pipeline.Workers = -1 }, SeverityError, "pipeline.workers", ">= 0"},
		{"dedupe_policy", func(c *Config) { c.Pipeline.Dedupe = "keep-best" }, SeverityError, "pipeline.dedupe", "keep-best"},
		{"dedupe_keys_without_policy", func(c *Config) { c.Pipeline.DedupeKeys = []string{"dept"} }, SeverityWarning, "pipeline.dedupe_keys", "ignored"},
		{"blank_dedupe_key", func(c *Config) {
			c.Pipeline.Dedupe = "keep-last"
			c.Pipeline.DedupeKeys = []string{"dept", " "}
		}, SeverityError, "pipeline.dedupe_keys[1]", "must not be empty"},
		{"export_format", func(c *Config) { c.Export.Format = "parquet" }, SeverityError, "export.format", "parquet"},
		{"metrics_backend", func(c *Config) { c.Metrics.Backend = "statsd" }, SeverityError, "metrics.backend", "statsd"},
		{"pushgateway_needs_url", func(c *Config) { c.Metrics.Backend = "pushgateway" }, SeverityError, "metrics.pushgateway_url", "required"},
		{"pushgateway_bad_url", func(c *Config) {
			c.Metrics.Backend = "pushgateway"
			c.Metrics.PushgatewayURL = "not a url"
		}, SeverityError, "metrics.pushgateway_url", "absolute URL"},
		{"datadog_needs_addr", func(c *Config) { c.Metrics.Backend = "datadog" }, SeverityError, "metrics.datadog_addr", "required"},
		{"datadog_bad_addr", func(c *Config) {
			c.Metrics.Backend = "datadog"
			c.Metrics.DatadogAddr = "localhost"
		}, SeverityError, "metrics.datadog_addr", "host:port"},
		{"unused_metrics_addr", func(c *Config) { c.Metrics.DatadogAddr = "127.0.0.1:8125" }, SeverityWarning, "metrics.backend", "ignored"},
		{"log_level", func(c *Config) { c.Logging.Level = "trace" }, SeverityError, "logging.level", "trace"},
		{"server_addr", func(c *Config) { c.Server.Addr = "" }, SeverityError, "server.addr", "must not be empty"},
		{"upload_limit", func(c *Config) { c.Server.MaxUploadBytes = 0 }, SeverityError, "server.max_upload_bytes", "> 0"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := Default()
			tc.mutate(&c)
			issues := Validate(c)
			if !hasIssue(t, issues, tc.sev, tc.path, tc.msg) {
				t.Fatalf("want %s at %s containing %q; got %+v", tc.sev, tc.path, tc.msg, issues)
			}
		})
	}
}

func TestHasErrors(t *testing.T) {
	t.Parallel()
	if HasErrors([]Issue{{Severity: SeverityWarning}}) {
		t.Fatal("warnings only must not count as errors")
	}
	if !HasErrors([]Issue{{Severity: SeverityWarning}, {Severity: SeverityError}}) {
		t.Fatal("expected error")
	}
	if HasErrors(nil) {
		t.Fatal("nil issues")
	}
}
