package app

import (
	"fmt"
	"net/http"

	"studentetl/internal/config"
	"studentetl/internal/metrics"
	"studentetl/internal/metrics/datadog"
	"studentetl/internal/metrics/prompush"
)

// SetupMetrics installs the configured metrics backend globally. scrape is
// non-nil when the backend exposes a /metrics handler; with scrapeDefault a
// "none" backend is replaced by a Prometheus scrape registry so a server
// always has one. Call metrics.Flush at shutdown.
func SetupMetrics(cfg config.Metrics, job string, scrapeDefault bool) (scrape http.Handler, err error) {
	switch cfg.Backend {
	case "pushgateway":
		b, err := prompush.NewBackend(job, cfg.PushgatewayURL)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		metrics.SetBackend(b)
		return b.Handler(), nil
	case "datadog":
		var tags []string
		if job != "" {
			tags = []string{"job:" + job}
		}
		b, err := datadog.NewBackend(datadog.Config{Addr: cfg.DatadogAddr, Namespace: cfg.Namespace, GlobalTags: tags})
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		metrics.SetBackend(b)
		return nil, nil
	case "prometheus":
	case "none", "":
		if !scrapeDefault {
			return nil, nil
		}
	default:
		return nil, fmt.Errorf("metrics: unknown backend %q", cfg.Backend)
	}
	b, err := prompush.NewScrapeBackend()
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	metrics.SetBackend(b)
	return b.Handler(), nil
}
