package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"tuition-backend/internal/models"
	"tuition-backend/internal/services"
	"tuition-backend/internal/timeutil"
	"tuition-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type FeeHandler struct {
	Service *services.LedgerService
}

func NewFeeHandler(service *services.LedgerService) *FeeHandler {
	return &FeeHandler{Service: service}
}

func (h *FeeHandler) CreateFee(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fee, err := h.Service.CreateFee(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, fee)
}

func (h *FeeHandler) CreateFeesBulk(w http.ResponseWriter, r *http.Request) {
	var req models.BulkCreateFeesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.Service.CreateFeesBulk(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, result)
}

func (h *FeeHandler) GetFee(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fee, err := h.Service.GetFee(r.Context(), vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, fee)
}

func (h *FeeHandler) ListFees(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFeeFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	fees, total, err := h.Service.ListFees(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"fees":  fees,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

func (h *FeeHandler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req models.ApplyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	payment, fee, err := h.Service.ApplyPayment(r.Context(), vars["id"], &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, map[string]interface{}{
		"payment": payment,
		"fee":     fee,
	})
}

func (h *FeeHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req models.ApplyDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fee, err := h.Service.ApplyDiscount(r.Context(), vars["id"], &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, fee)
}

func (h *FeeHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	payments, err := h.Service.ListPayments(r.Context(), vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, payments)
}

// parseFeeFilter reads list constraints from the query string. Unknown status
// values and malformed dates are rejected rather than silently ignored.
func parseFeeFilter(r *http.Request) (models.FeeFilter, error) {
	q := r.URL.Query()
	filter := models.FeeFilter{
		StudentID: q.Get("student_id"),
		CourseID:  q.Get("course_id"),
		BatchID:   q.Get("batch_id"),
	}

	verr := &models.ValidationError{}
	if s := q.Get("status"); s != "" {
		status := models.FeeStatus(s)
		if !models.ValidFeeStatus(status) {
			verr.Add("status", "must be one of pending, partial, paid, overdue")
		}
		filter.Status = status
	}
	if s := q.Get("due_from"); s != "" {
		t, err := time.ParseInLocation(timeutil.DateLayout, s, timeutil.IST)
		if err != nil {
			verr.Add("due_from", "must be formatted as "+timeutil.DateLayout)
		}
		filter.DueFrom = t
	}
	if s := q.Get("due_to"); s != "" {
		t, err := time.ParseInLocation(timeutil.DateLayout, s, timeutil.IST)
		if err != nil {
			verr.Add("due_to", "must be formatted as "+timeutil.DateLayout)
		}
		filter.DueTo = t
	}
	if s := q.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			verr.Add("page", "must be a positive integer")
		}
		filter.Page = n
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			verr.Add("limit", "must be a positive integer")
		}
		filter.Limit = n
	}
	if verr.HasErrors() {
		return filter, verr
	}
	return filter, nil
}
