package handlers

import (
	"net/http"

	"tuition-backend/internal/services"
	"tuition-backend/pkg/utils"
)

type AnalyticsHandler struct {
	Service *services.AnalyticsService
}

func NewAnalyticsHandler(service *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{Service: service}
}

// GetSummary returns ledger totals, optionally narrowed by the same query
// parameters as the fee listing.
func (h *AnalyticsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFeeFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.Service.GetSummary(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, summary)
}
