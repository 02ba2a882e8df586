package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghosted_http_requests_total",
		Help: "HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "status"})

	detectorErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghosted_detector_errors_total",
		Help: "Detector calls that returned an error verdict.",
	}, []string{"detector"})

	scanFindingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghosted_scan_findings_total",
		Help: "Invisible characters found across all scan requests.",
	})
)
