package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, recorded by the metrics middleware.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tuition_http_requests_total",
		Help: "Total HTTP requests by method, path and status code",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tuition_http_request_duration_seconds",
		Help:    "HTTP request latency by method and path",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Ledger metrics.
var (
	FeesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tuition_fees_created_total",
		Help: "Fee records created (single and bulk)",
	})

	PaymentsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tuition_payments_recorded_total",
		Help: "Payments successfully recorded",
	})

	PaymentAmountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tuition_payment_amount_paise_total",
		Help: "Sum of recorded payment amounts in paise",
	})

	OverpaymentRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tuition_overpayment_rejections_total",
		Help: "Payments rejected for exceeding the pending balance",
	})

	BulkItemsSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tuition_bulk_fee_items_succeeded_total",
		Help: "Per-student successes across bulk fee creations",
	})

	BulkItemsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tuition_bulk_fee_items_failed_total",
		Help: "Per-student failures across bulk fee creations",
	})
)
