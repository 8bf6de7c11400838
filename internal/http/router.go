package http

import (
	"tuition-backend/internal/handlers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	feeHandler *handlers.FeeHandler,
	paymentHandler *handlers.PaymentHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	reportHandler *handlers.ReportHandler,
	healthHandler *handlers.HealthHandler,
) *mux.Router {
	r := mux.NewRouter()

	// Health probes
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Fees
	feesAPI := r.PathPrefix("/api/fees").Subrouter()
	feesAPI.HandleFunc("", feeHandler.ListFees).Methods("GET")
	feesAPI.HandleFunc("", feeHandler.CreateFee).Methods("POST")
	feesAPI.HandleFunc("/bulk", feeHandler.CreateFeesBulk).Methods("POST")
	feesAPI.HandleFunc("/{id}", feeHandler.GetFee).Methods("GET")
	feesAPI.HandleFunc("/{id}/payments", feeHandler.ListPayments).Methods("GET")
	feesAPI.HandleFunc("/{id}/payments", feeHandler.ApplyPayment).Methods("POST")
	feesAPI.HandleFunc("/{id}/discount", feeHandler.ApplyDiscount).Methods("POST")

	// Payments
	paymentsAPI := r.PathPrefix("/api/payments").Subrouter()
	paymentsAPI.HandleFunc("/receipt/{receipt_number}", paymentHandler.GetPaymentByReceipt).Methods("GET")
	paymentsAPI.HandleFunc("/{id}", paymentHandler.GetPayment).Methods("GET")
	paymentsAPI.HandleFunc("/{id}/void", paymentHandler.VoidPayment).Methods("POST")
	paymentsAPI.HandleFunc("/{id}/receipt.pdf", paymentHandler.DownloadReceipt).Methods("GET")

	// Analytics
	analyticsAPI := r.PathPrefix("/api/analytics").Subrouter()
	analyticsAPI.HandleFunc("/summary", analyticsHandler.GetSummary).Methods("GET")

	// Reports
	reportsAPI := r.PathPrefix("/api/reports").Subrouter()
	reportsAPI.HandleFunc("/collections.csv", reportHandler.CollectionsCSV).Methods("GET")
	reportsAPI.HandleFunc("/collections.pdf", reportHandler.CollectionsPDF).Methods("GET")

	return r
}
