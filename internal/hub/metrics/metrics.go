// Package metrics exposes prometheus collectors for the catalog server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts API requests by endpoint.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pluginhub_http_requests_total",
		Help: "Number of API requests served, by endpoint.",
	}, []string{"endpoint"})

	// DegradedResponses counts listing responses served from fallback data
	// because the database was unavailable.
	DegradedResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pluginhub_degraded_responses_total",
		Help: "Number of listing responses served with fallback data.",
	}, []string{"endpoint"})

	// IndexedRecords counts records processed by the registry indexer.
	IndexedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pluginhub_indexed_records_total",
		Help: "Number of records processed by the indexer, by source and outcome.",
	}, []string{"source", "outcome"})

	// StatsSyncRecords counts records processed by the stats syncer.
	StatsSyncRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pluginhub_stats_sync_records_total",
		Help: "Number of records processed by the stats syncer, by outcome.",
	}, []string{"outcome"})
)
