package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"tuition-backend/internal/models"
	"tuition-backend/internal/repositories"
	"tuition-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

const reportWorkers = 10

// ReportService builds collection reports over a date window.
type ReportService struct {
	Fees          repositories.FeeStore
	Payments      repositories.PaymentStore
	InstituteName string
}

func NewReportService(fees repositories.FeeStore, payments repositories.PaymentStore, instituteName string) *ReportService {
	if instituteName == "" {
		instituteName = "Tuition Institute"
	}
	return &ReportService{Fees: fees, Payments: payments, InstituteName: instituteName}
}

// collectionRow is one payment joined with its owning fee.
type collectionRow struct {
	Payment *models.Payment
	Fee     *models.Fee
}

// collectRows loads the recorded payments in [from, to) and resolves each
// payment's fee with a bounded worker pool. Rows whose fee lookup fails are
// skipped with a log line rather than failing the whole report.
func (s *ReportService) collectRows(ctx context.Context, from, to time.Time) ([]collectionRow, error) {
	payments, err := s.Payments.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for report: %w", err)
	}

	rows := make([]collectionRow, len(payments))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < reportWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fee, err := s.Fees.GetByID(ctx, payments[i].FeeID)
				if err != nil {
					log.Printf("[Report] Skipping payment %s: fee lookup failed: %v", payments[i].ID, err)
					continue
				}
				rows[i] = collectionRow{Payment: payments[i], Fee: fee}
			}
		}()
	}
	for i := range payments {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	out := rows[:0]
	for _, r := range rows {
		if r.Payment != nil {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Payment.PaymentDate.Equal(out[j].Payment.PaymentDate) {
			return out[i].Payment.ReceiptNumber < out[j].Payment.ReceiptNumber
		}
		return out[i].Payment.PaymentDate.Before(out[j].Payment.PaymentDate)
	})
	return out, nil
}

// GenerateCollectionsCSV writes the collection report as CSV.
func (s *ReportService) GenerateCollectionsCSV(ctx context.Context, from, to time.Time) ([]byte, error) {
	rows, err := s.collectRows(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"receipt_number", "payment_date", "student_id", "fee_type", "method", "transaction_id", "amount"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write report header: %w", err)
	}

	var total models.Money
	for _, r := range rows {
		total = total.Add(r.Payment.Amount)
		record := []string{
			r.Payment.ReceiptNumber,
			timeutil.ToIST(r.Payment.PaymentDate).Format(timeutil.DateLayout),
			r.Fee.StudentID,
			string(r.Fee.FeeType),
			string(r.Payment.Method),
			r.Payment.TransactionID,
			r.Payment.Amount.Rupees(),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write report row: %w", err)
		}
	}
	if err := w.Write([]string{"", "", "", "", "", "total", total.Rupees()}); err != nil {
		return nil, fmt.Errorf("failed to write report total: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush report: %w", err)
	}
	log.Printf("[Report] Collections CSV: %d payments, total Rs. %s", len(rows), total.Rupees())
	return buf.Bytes(), nil
}

// GenerateCollectionsPDF writes the collection report as a landscape PDF table.
func (s *ReportService) GenerateCollectionsPDF(ctx context.Context, from, to time.Time) ([]byte, error) {
	rows, err := s.collectRows(ctx, from, to)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(277, 10, s.InstituteName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	window := fmt.Sprintf("Collections from %s to %s",
		timeutil.ToIST(from).Format(timeutil.DateLayout),
		timeutil.ToIST(to.Add(-time.Second)).Format(timeutil.DateLayout))
	pdf.CellFormat(277, 6, window, "", 1, "C", false, 0, "")
	pdf.CellFormat(277, 5, fmt.Sprintf("Generated: %s", timeutil.Now().Format(timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	headers := []string{"Receipt No", "Date", "Student", "Fee Type", "Method", "Txn Ref", "Amount (Rs.)"}
	widths := []float64{35, 28, 55, 35, 30, 54, 40}

	writeHeader := func() {
		pdf.SetFillColor(52, 73, 94)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Arial", "B", 9)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Arial", "", 9)
	}
	writeHeader()

	var total models.Money
	fill := false
	for _, r := range rows {
		if pdf.GetY() > 185 {
			pdf.AddPage()
			writeHeader()
		}
		if fill {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		total = total.Add(r.Payment.Amount)
		cells := []string{
			r.Payment.ReceiptNumber,
			timeutil.ToIST(r.Payment.PaymentDate).Format(timeutil.DateLayout),
			r.Fee.StudentID,
			string(r.Fee.FeeType),
			string(r.Payment.Method),
			r.Payment.TransactionID,
			r.Payment.Amount.Rupees(),
		}
		for i, c := range cells {
			align := "L"
			if i == len(cells)-1 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 7, c, "1", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
		fill = !fill
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3]+widths[4]+widths[5], 8, fmt.Sprintf("Total (%d payments)", len(rows)), "1", 0, "R", true, 0, "")
	pdf.CellFormat(widths[6], 8, total.Rupees(), "1", 1, "R", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render collections report: %w", err)
	}
	log.Printf("[Report] Collections PDF: %d payments, total Rs. %s", len(rows), total.Rupees())
	return buf.Bytes(), nil
}
