package handlers

import (
	"fmt"
	"net/http"
	"time"

	"tuition-backend/internal/models"
	"tuition-backend/internal/services"
	"tuition-backend/internal/timeutil"
)

type ReportHandler struct {
	Service *services.ReportService
}

func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{Service: service}
}

func (h *ReportHandler) CollectionsCSV(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseReportWindow(r)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := h.Service.GenerateCollectionsCSV(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=collections_%s.csv", from.Format(timeutil.DateLayout)))
	w.Write(data)
}

func (h *ReportHandler) CollectionsPDF(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseReportWindow(r)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := h.Service.GenerateCollectionsPDF(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=collections_%s.pdf", from.Format(timeutil.DateLayout)))
	w.Write(data)
}

// parseReportWindow reads ?from and ?to dates (inclusive) and returns the
// half-open interval covering them. Defaults to the current IST month.
func parseReportWindow(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	fromStr, toStr := q.Get("from"), q.Get("to")
	if fromStr == "" && toStr == "" {
		from, to := timeutil.MonthWindow(timeutil.Now())
		return from, to, nil
	}

	verr := &models.ValidationError{}
	var from, to time.Time
	var err error
	if fromStr == "" {
		verr.Add("from", "is required when to is set")
	} else if from, err = time.ParseInLocation(timeutil.DateLayout, fromStr, timeutil.IST); err != nil {
		verr.Add("from", "must be formatted as "+timeutil.DateLayout)
	}
	if toStr == "" {
		verr.Add("to", "is required when from is set")
	} else if to, err = time.ParseInLocation(timeutil.DateLayout, toStr, timeutil.IST); err != nil {
		verr.Add("to", "must be formatted as "+timeutil.DateLayout)
	}
	if verr.HasErrors() {
		return from, to, verr
	}

	to = to.AddDate(0, 0, 1)
	if !from.Before(to) {
		verr.Add("from", "must not be after to")
		return from, to, verr
	}
	return from, to, nil
}
