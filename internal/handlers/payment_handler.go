package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"tuition-backend/internal/models"
	"tuition-backend/internal/services"
	"tuition-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type PaymentHandler struct {
	Service  *services.LedgerService
	Receipts *services.ReceiptService
}

func NewPaymentHandler(service *services.LedgerService, receipts *services.ReceiptService) *PaymentHandler {
	return &PaymentHandler{Service: service, Receipts: receipts}
}

func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	payment, err := h.Service.GetPayment(r.Context(), vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) GetPaymentByReceipt(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	payment, err := h.Service.GetPaymentByReceipt(r.Context(), vars["receipt_number"])
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) VoidPayment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req models.VoidPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	payment, fee, err := h.Service.VoidPayment(r.Context(), vars["id"], &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"payment": payment,
		"fee":     fee,
	})
}

func (h *PaymentHandler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	pdfBytes, err := h.Receipts.GeneratePaymentReceipt(r.Context(), vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=receipt_%s.pdf", vars["id"]))
	w.Write(pdfBytes)
}
