// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package quotautilization

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	scrapeErrorsTotalDesc = prometheus.NewDesc(
		"radosgw_quota_scrape_errors_total",
		"Failed admin API calls since the exporter started",
		nil, nil,
	)
	scrapesTotalDesc = prometheus.NewDesc(
		"radosgw_quota_scrapes_total",
		"Collection cycles run since the exporter started",
		nil, nil,
	)
)

// Status keeps the few numbers that outlive a single scrape. It is a
// prometheus.Collector for the exporter's self registry.
type Status struct {
	mu           sync.Mutex
	ScrapeErrors int
	Scrapes      int
}

func (s *Status) IncrementScrapeErrors(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ScrapeErrors += n
}

// Record folds a finished cycle into the status. Whether the cycle was up is
// exposed per scrape as radosgw_quota_up, not kept here.
func (s *Status) Record(res Result) {
	s.mu.Lock()
	s.Scrapes++
	s.mu.Unlock()

	s.IncrementScrapeErrors(res.Errors())
}

func (s *Status) Describe(ch chan<- *prometheus.Desc) {
	ch <- scrapeErrorsTotalDesc
	ch <- scrapesTotalDesc
}

func (s *Status) Collect(ch chan<- prometheus.Metric) {
	s.mu.Lock()
	scrapeErrors, scrapes := s.ScrapeErrors, s.Scrapes
	s.mu.Unlock()

	ch <- prometheus.MustNewConstMetric(scrapeErrorsTotalDesc, prometheus.CounterValue, float64(scrapeErrors))
	ch <- prometheus.MustNewConstMetric(scrapesTotalDesc, prometheus.CounterValue, float64(scrapes))
}
