package models

// AnalyticsSummary is the dashboard aggregate over a set of fee records.
// Statuses are re-derived at query time, so the figures stay consistent
// with the current date even when no write has happened since a due date
// passed. An empty record set yields an all-zero summary, not an error.
type AnalyticsSummary struct {
	TotalFees    Money `json:"total_fees"`
	TotalPaid    Money `json:"total_paid"`
	TotalPending Money `json:"total_pending"`
	TotalRecords int   `json:"total_records"`

	OverdueAmount Money `json:"overdue_amount"`
	OverdueCount  int   `json:"overdue_count"`

	// Collections whose payment date falls in the current calendar month.
	MonthlyCollection   Money `json:"monthly_collection"`
	MonthlyTransactions int   `json:"monthly_transactions"`
}
