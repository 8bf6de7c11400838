package services

import (
	"bytes"
	"context"
	"fmt"

	"tuition-backend/internal/models"
	"tuition-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

// ReceiptService renders payment receipts as PDFs.
type ReceiptService struct {
	Ledger        *LedgerService
	InstituteName string
}

func NewReceiptService(ledger *LedgerService, instituteName string) *ReceiptService {
	if instituteName == "" {
		instituteName = "Tuition Institute"
	}
	return &ReceiptService{Ledger: ledger, InstituteName: instituteName}
}

// GeneratePaymentReceipt renders the receipt for one payment, including
// the owning fee's balance after that payment's application.
func (s *ReceiptService) GeneratePaymentReceipt(ctx context.Context, paymentID string) ([]byte, error) {
	payment, err := s.Ledger.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	fee, err := s.Ledger.GetFee(ctx, payment.FeeID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(128, 10, s.InstituteName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(128, 8, "Payment Receipt", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(128, 5, fmt.Sprintf("Generated: %s", timeutil.Now().Format(timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(128, 7, fmt.Sprintf("Receipt No: %s", payment.ReceiptNumber), "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	row := func(label, value string) {
		pdf.CellFormat(50, 7, label, "LB", 0, "L", false, 0, "")
		pdf.CellFormat(78, 7, value, "RB", 1, "L", false, 0, "")
	}
	row("Student", fee.StudentID)
	row("Fee Type", string(fee.FeeType))
	if fee.Period != nil {
		row("Period", fmt.Sprintf("%s %d", fee.Period.Month, fee.Period.Year))
	}
	row("Payment Date", timeutil.ToIST(payment.PaymentDate).Format(timeutil.DateLayout))
	row("Method", string(payment.Method))
	if payment.TransactionID != "" {
		row("Transaction Ref", payment.TransactionID)
	}
	row("Amount Paid", "Rs. "+payment.Amount.Rupees())
	if payment.Status == models.PaymentStatusVoided {
		pdf.SetFont("Arial", "B", 10)
		row("Status", "VOIDED")
		pdf.SetFont("Arial", "", 10)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(128, 7, "Fee Account Position", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	row("Total Fee", "Rs. "+fee.Amount.Rupees())
	row("Discount", "Rs. "+fee.Discount.Rupees())
	row("Paid To Date", "Rs. "+fee.PaidAmount.Rupees())
	row("Balance Due", "Rs. "+fee.PendingAmount().Rupees())
	row("Status", string(fee.Status))

	if payment.Remarks != "" {
		pdf.Ln(3)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(128, 5, "Remarks: "+payment.Remarks, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
