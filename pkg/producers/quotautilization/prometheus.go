// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package quotautilization

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	scrapeTimeoutHeader = "X-Prometheus-Scrape-Timeout-Seconds"
	scrapeTimeoutOffset = 500 * time.Millisecond
)

var (
	percentQuotaUtilizedDesc = prometheus.NewDesc(
		"radosgw_percent_quota_utilized",
		"Percent of radosgw quota utilized",
		[]string{"project_name", "project_id", "project_quota"}, nil,
	)
	upDesc = prometheus.NewDesc(
		"radosgw_quota_up",
		"Whether the tenant listing of the admin API succeeded in this scrape",
		nil, nil,
	)
	scrapeDurationDesc = prometheus.NewDesc(
		"radosgw_quota_scrape_duration_seconds",
		"Amount of time the collection cycle of this scrape took",
		nil, nil,
	)
	tenantsDesc = prometheus.NewDesc(
		"radosgw_quota_tenants",
		"Tenants returned by the admin API in this scrape",
		nil, nil,
	)
	tenantsSkippedDesc = prometheus.NewDesc(
		"radosgw_quota_tenants_skipped",
		"Tenants left out of this scrape because an admin API call failed",
		nil, nil,
	)
)

// Source runs a collection cycle. Both *Collector and *Exporter are sources.
type Source interface {
	Collect(ctx context.Context) Result
}

// cycleCollector exposes the result of exactly one collection cycle.
type cycleCollector struct {
	res Result
}

func (c cycleCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- percentQuotaUtilizedDesc
	ch <- upDesc
	ch <- scrapeDurationDesc
	ch <- tenantsDesc
	ch <- tenantsSkippedDesc
}

// Collect must not panic on tenant data, Gather calls it outside of any
// recover. A sample that cannot be exposed is dropped with a warning.
//
// A failed listing leaves no samples, so radosgw_percent_quota_utilized is
// omitted from the exposition entirely and radosgw_quota_up 0 reports it.
func (c cycleCollector) Collect(ch chan<- prometheus.Metric) {
	// the tenant listing may repeat a user, its label set is only exposed once
	seen := make(map[[3]string]struct{}, len(c.res.Samples))
	for _, s := range c.res.Samples {
		labels := [3]string{
			toValidLabel(s.ProjectName),
			toValidLabel(s.ProjectID),
			strconv.FormatInt(s.ProjectQuota, 10),
		}
		if _, dup := seen[labels]; dup {
			log.Debug().Str("cycle_id", c.res.CycleID).Str("project_id", s.ProjectID).Msg("duplicate sample dropped")
			continue
		}
		seen[labels] = struct{}{}

		m, err := prometheus.NewConstMetric(percentQuotaUtilizedDesc, prometheus.GaugeValue, float64(s.Percent), labels[:]...)
		if err != nil {
			log.Warn().Err(err).Str("cycle_id", c.res.CycleID).Str("project_id", s.ProjectID).Msg("sample dropped")
			continue
		}
		ch <- m
	}

	ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, boolToFloat64(c.res.Up()))
	ch <- prometheus.MustNewConstMetric(scrapeDurationDesc, prometheus.GaugeValue, c.res.Duration.Seconds())
	ch <- prometheus.MustNewConstMetric(tenantsDesc, prometheus.GaugeValue, float64(c.res.Tenants))
	ch <- prometheus.MustNewConstMetric(tenantsSkippedDesc, prometheus.GaugeValue, float64(c.res.Skipped))
}

// toValidLabel replaces invalid UTF-8 from the admin API, label values must
// be valid UTF-8.
func toValidLabel(v string) string {
	return strings.ToValidUTF8(v, "\uFFFD")
}

// promLogger routes promhttp errors into zerolog.
type promLogger struct{}

func (promLogger) Println(v ...interface{}) {
	log.Error().Msg(fmt.Sprint(v...))
}

// NewSelfRegistry returns the registry for metrics that live as long as the
// process: Go runtime, process and the exporter status.
func NewSelfRegistry(status *Status) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		status,
	)
	return reg
}

// NewHandler returns the scrape handler. Every request runs a fresh
// collection cycle against the admin API; admin API failures never turn into
// an HTTP error.
func NewHandler(source Source, status *Status, self prometheus.Gatherer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := scrapeContext(r)
		defer cancel()

		res := source.Collect(ctx)
		if status != nil {
			status.Record(res)
		}

		cycle := prometheus.NewRegistry()
		cycle.MustRegister(cycleCollector{res: res})

		gatherers := prometheus.Gatherers{cycle}
		if self != nil {
			gatherers = append(gatherers, self)
		}

		promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{
			ErrorLog:      promLogger{},
			ErrorHandling: promhttp.ContinueOnError,
		}).ServeHTTP(w, r)
	})
}

// scrapeContext bounds the cycle by the scrape timeout Prometheus announces,
// leaving a little time to render the response.
func scrapeContext(r *http.Request) (context.Context, context.CancelFunc) {
	v := r.Header.Get(scrapeTimeoutHeader)
	if v == "" {
		return context.WithCancel(r.Context())
	}

	seconds, err := strconv.ParseFloat(v, 64)
	if err != nil || seconds <= 0 {
		log.Debug().Str("header", v).Msg("ignoring invalid scrape timeout header")
		return context.WithCancel(r.Context())
	}

	timeout := time.Duration(seconds * float64(time.Second))
	if timeout > 2*scrapeTimeoutOffset {
		timeout -= scrapeTimeoutOffset
	}
	return context.WithTimeout(r.Context(), timeout)
}

// NewRouter serves the scrape handler next to a health check and an index page.
func NewRouter(metrics http.Handler, metricsPath string) http.Handler {
	if metricsPath == "" {
		metricsPath = DefaultMetricsPath
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, metricsPath, metrics)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if metricsPath != "/" {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = fmt.Fprintf(w, `<html>
<head><title>RadosGW Quota Exporter</title></head>
<body>
<h1>RadosGW Quota Exporter</h1>
<p><a href="%s">Metrics</a></p>
</body>
</html>
`, metricsPath)
		})
	}

	return r
}

func boolToFloat64(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
