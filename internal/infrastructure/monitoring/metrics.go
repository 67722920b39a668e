package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type CRMMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	FlagsAppliedTotal    *prometheus.CounterVec
	ContactsMissingTotal prometheus.Counter
}

var (
	CRM = CRMMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_bridge_crm_requests_total",
				Help: "Total number of requests sent to the CRM API.",
			},
			[]string{"operation", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_bridge_crm_request_duration_seconds",
				Help:    "Histogram of CRM API request latencies.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),
	}

	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_bridge_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		FlagsAppliedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_bridge_flags_applied_total",
				Help: "Total number of flag fields successfully set in the CRM, by value written.",
			},
			[]string{"value"},
		),
		ContactsMissingTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crm_bridge_contacts_not_registered_total",
				Help: "Total number of flag requests for emails without a CRM contact.",
			},
		),
	}
)

func RecordCRMRequest(operation, status string, duration time.Duration) {
	CRM.RequestsTotal.WithLabelValues(operation, status).Inc()
	CRM.RequestDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

// flagValueLabel keeps the label set to yes, no and other. Field names and
// CRM echoes are caller controlled and never become label values.
func flagValueLabel(value string) string {
	switch value {
	case "yes", "no":
		return value
	default:
		return "other"
	}
}

func RecordFlagApplied(value string) {
	Business.FlagsAppliedTotal.WithLabelValues(flagValueLabel(value)).Inc()
}

func RecordContactNotRegistered() {
	Business.ContactsMissingTotal.Inc()
}
