package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/encoding/htmlindex"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is one finding. Path is the dotted JSON path, e.g. "metrics.backend".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate lints c without changing it: struct-tag rules first, then the
// cross-field checks tags cannot express.
func Validate(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{SeverityError, "job", "job must not be empty; it labels metrics and logs"})
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return append(issues, Issue{SeverityError, "", err.Error()})
		}
		for _, fe := range verrs {
			issues = append(issues, Issue{SeverityError, fieldPath(fe), tagMessage(fe)})
		}
	}

	issues = append(issues, validateParser(c.Parser)...)
	issues = append(issues, validatePipeline(c.Pipeline)...)
	issues = append(issues, validateMetrics(c.Metrics)...)
	return issues
}

// fieldPath drops the root type name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	_, path, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		return fe.Field()
	}
	return path
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "oneof":
		return fmt.Sprintf("%q is not one of [%s]", fmt.Sprint(fe.Value()), fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s character(s)", fe.Param())
	case "gt", "gte", "lt", "lte":
		return fmt.Sprintf("must be %s %s", map[string]string{"gt": ">", "gte": ">=", "lt": "<", "lte": "<="}[fe.Tag()], fe.Param())
	case "url":
		return "must be an absolute URL"
	case "hostname_port":
		return "must be host:port"
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}

func validatePipeline(p Pipeline) []Issue {
	var issues []Issue
	off := p.Dedupe == "" || p.Dedupe == "none"
	if off && len(p.DedupeKeys) > 0 {
		issues = append(issues, Issue{SeverityWarning, "pipeline.dedupe_keys", "ignored while dedupe is none"})
	}
	for i, k := range p.DedupeKeys {
		if strings.TrimSpace(k) == "" {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("pipeline.dedupe_keys[%d]", i), "must not be empty"})
		}
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue
	switch p.Delimiter {
	case `"`, "\n", "\r":
		issues = append(issues, Issue{SeverityError, "parser.delimiter", fmt.Sprintf("%q cannot be a delimiter", p.Delimiter)})
	}
	if p.Encoding != "" {
		if _, err := htmlindex.Get(p.Encoding); err != nil {
			issues = append(issues, Issue{SeverityError, "parser.encoding", fmt.Sprintf("unknown encoding %q", p.Encoding)})
		}
	}
	if p.Kind == "xlsx" {
		for path, set := range map[string]bool{
			"parser.delimiter":   p.Delimiter != "",
			"parser.encoding":    p.Encoding != "",
			"parser.lazy_quotes": p.LazyQuotes,
		} {
			if set {
				issues = append(issues, Issue{SeverityWarning, path, "ignored for xlsx input"})
			}
		}
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "pushgateway":
		if m.PushgatewayURL == "" {
			issues = append(issues, Issue{SeverityError, "metrics.pushgateway_url", "required when backend is pushgateway"})
		}
	case "datadog":
		if m.DatadogAddr == "" {
			issues = append(issues, Issue{SeverityError, "metrics.datadog_addr", "required when backend is datadog"})
		}
	case "none", "":
		if m.PushgatewayURL != "" || m.DatadogAddr != "" {
			issues = append(issues, Issue{SeverityWarning, "metrics.backend", "backend is none; metrics addresses are ignored"})
		}
	}
	return issues
}
