package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copierbill_http_requests_total",
			Help: "Total number of HTTP requests per route and status code",
		},
		[]string{"route", "method", "code"},
	)

	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "copierbill_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds per route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	InvoicesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "copierbill_invoices_created_total",
			Help: "Total number of invoices appended to the invoice log",
		},
	)

	InvoicedAmountTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "copierbill_invoiced_amount_total",
			Help: "Sum of the total due of all created invoices",
		},
	)

	PreviewsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "copierbill_previews_total",
			Help: "Total number of billing previews computed",
		},
	)

	EmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copierbill_emails_total",
			Help: "Emails attempted per kind and result",
		},
		[]string{"kind", "result"},
	)
)

func ObserveRequest(route, method string, code int, startedAt time.Time) {
	RequestsTotal.WithLabelValues(route, method, statusClass(code)).Inc()
	RequestDurationSeconds.WithLabelValues(route, method).Observe(time.Since(startedAt).Seconds())
}

func ObserveInvoice(totalDue float64) {
	InvoicesCreatedTotal.Inc()
	InvoicedAmountTotal.Add(totalDue)
}

func ObserveEmail(kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	EmailsTotal.WithLabelValues(kind, result).Inc()
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

var (
	DBOpenConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "copierbill_db_open_conns",
			Help: "Open connections in the DB pool per driver",
		},
		[]string{"driver"},
	)

	DBIdleConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "copierbill_db_idle_conns",
			Help: "Idle connections in the DB pool per driver",
		},
		[]string{"driver"},
	)

	DBInUseConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "copierbill_db_in_use_conns",
			Help: "Currently in-use connections per driver",
		},
		[]string{"driver"},
	)

	DBWaitCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "copierbill_db_wait_count",
			Help: "Total number of connections waited for per driver",
		},
		[]string{"driver"},
	)
)

func UpdateDBPoolMetrics(driver string, open, idle, inUse int, waits int64) {
	DBOpenConns.WithLabelValues(driver).Set(float64(open))
	DBIdleConns.WithLabelValues(driver).Set(float64(idle))
	DBInUseConns.WithLabelValues(driver).Set(float64(inUse))
	DBWaitCount.WithLabelValues(driver).Set(float64(waits))
}

var (
	ScheduledJobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "copierbill_job_last_run_timestamp",
			Help: "Unix timestamp of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobLastDurationSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "copierbill_job_last_duration_seconds",
			Help: "Duration of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copierbill_job_failures_total",
			Help: "Total number of failed executions per job",
		},
		[]string{"job"},
	)
)

func UpdateJobMetrics(job string, startedAt time.Time, err error) {
	dur := time.Since(startedAt).Seconds()
	ScheduledJobLastDurationSeconds.WithLabelValues(job).Set(dur)
	ScheduledJobLastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
	if err != nil {
		ScheduledJobFailuresTotal.WithLabelValues(job).Inc()
	}
}
