package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"tuition-backend/internal/models"
)

// MemoryStore is an in-process record store. It backs the server when no
// database is reachable (demo/dev mode) and the service-level tests. It
// honors the same version discipline as the Postgres repositories, so
// optimistic-concurrency behavior matches. Fees() and Payments() expose
// the two store interfaces over the shared data.
type MemoryStore struct {
	mu         sync.RWMutex
	fees       map[string]*models.Fee
	payments   map[string]*models.Payment
	receiptSeq int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		fees:     make(map[string]*models.Fee),
		payments: make(map[string]*models.Payment),
	}
}

// Fees returns the FeeStore view.
func (s *MemoryStore) Fees() FeeStore {
	return &memoryFeeStore{s}
}

// Payments returns the PaymentStore view.
func (s *MemoryStore) Payments() PaymentStore {
	return &memoryPaymentStore{s}
}

type memoryFeeStore struct{ s *MemoryStore }

func (m *memoryFeeStore) Create(ctx context.Context, fee *models.Fee) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.fees[fee.ID]; exists {
		return fmt.Errorf("fee %s already exists", fee.ID)
	}
	now := time.Now()
	fee.CreatedAt = now
	fee.UpdatedAt = now
	s.fees[fee.ID] = cloneFee(fee)
	return nil
}

func (m *memoryFeeStore) GetByID(ctx context.Context, id string) (*models.Fee, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	fee, ok := s.fees[id]
	if !ok {
		return nil, &models.NotFoundError{Kind: "fee", ID: id}
	}
	out := cloneFee(fee)
	out.PaymentIDs = s.paymentIDsLocked(id)
	return out, nil
}

func (m *memoryFeeStore) List(ctx context.Context, filter models.FeeFilter, asOf time.Time) ([]*models.Fee, int, error) {
	all, err := m.ListAll(ctx, filter, asOf)
	if err != nil {
		return nil, 0, err
	}

	total := len(all)
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= total {
		return []*models.Fee{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *memoryFeeStore) ListAll(ctx context.Context, filter models.FeeFilter, asOf time.Time) ([]*models.Fee, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Fee
	for _, fee := range s.fees {
		if !matchFee(fee, filter, asOf) {
			continue
		}
		out = append(out, cloneFee(fee))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.After(out[j].DueDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memoryFeeStore) Update(ctx context.Context, fee *models.Fee) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.fees[fee.ID]
	if !ok {
		return &models.NotFoundError{Kind: "fee", ID: fee.ID}
	}
	if stored.Version != fee.Version {
		return &models.ConflictError{FeeID: fee.ID}
	}

	stored.Discount = fee.Discount
	stored.PaidAmount = fee.PaidAmount
	stored.UpdatedAt = time.Now()
	stored.Version++
	fee.Version = stored.Version
	fee.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *memoryFeeStore) ApplyPayment(ctx context.Context, fee *models.Fee, payment *models.Payment) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.fees[fee.ID]
	if !ok {
		return &models.NotFoundError{Kind: "fee", ID: fee.ID}
	}
	if stored.Version != fee.Version {
		return &models.ConflictError{FeeID: fee.ID}
	}

	stored.PaidAmount = fee.PaidAmount
	stored.UpdatedAt = time.Now()
	stored.Version++
	fee.Version = stored.Version
	fee.UpdatedAt = stored.UpdatedAt

	payment.CreatedAt = time.Now()
	s.payments[payment.ID] = clonePayment(payment)
	return nil
}

func (m *memoryFeeStore) VoidPayment(ctx context.Context, fee *models.Fee, payment *models.Payment) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.fees[fee.ID]
	if !ok {
		return &models.NotFoundError{Kind: "fee", ID: fee.ID}
	}
	if stored.Version != fee.Version {
		return &models.ConflictError{FeeID: fee.ID}
	}
	storedPayment, ok := s.payments[payment.ID]
	if !ok {
		return &models.NotFoundError{Kind: "payment", ID: payment.ID}
	}
	if storedPayment.Status != models.PaymentStatusRecorded {
		return &models.ConflictError{FeeID: fee.ID}
	}

	stored.PaidAmount = fee.PaidAmount
	stored.UpdatedAt = time.Now()
	stored.Version++
	fee.Version = stored.Version
	fee.UpdatedAt = stored.UpdatedAt

	storedPayment.Status = models.PaymentStatusVoided
	storedPayment.Remarks = payment.Remarks
	return nil
}

type memoryPaymentStore struct{ s *MemoryStore }

func (m *memoryPaymentStore) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, &models.NotFoundError{Kind: "payment", ID: id}
	}
	return clonePayment(p), nil
}

func (m *memoryPaymentStore) ListByFee(ctx context.Context, feeID string) ([]*models.Payment, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Payment
	for _, p := range s.payments {
		if p.FeeID == feeID {
			out = append(out, clonePayment(p))
		}
	}
	sortPayments(out)
	return out, nil
}

func (m *memoryPaymentStore) GetByReceiptNumber(ctx context.Context, receiptNumber string) (*models.Payment, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.payments {
		if p.ReceiptNumber == receiptNumber {
			return clonePayment(p), nil
		}
	}
	return nil, &models.NotFoundError{Kind: "payment", ID: receiptNumber}
}

func (m *memoryPaymentStore) ListByDateRange(ctx context.Context, from, to time.Time) ([]*models.Payment, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Payment
	for _, p := range s.payments {
		if p.Status != models.PaymentStatusRecorded {
			continue
		}
		if p.PaymentDate.Before(from) || !p.PaymentDate.Before(to) {
			continue
		}
		out = append(out, clonePayment(p))
	}
	sortPayments(out)
	return out, nil
}

func (m *memoryPaymentStore) NextReceiptNumber(ctx context.Context) (string, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receiptSeq++
	return fmt.Sprintf("RCP-%06d", s.receiptSeq), nil
}

func (s *MemoryStore) paymentIDsLocked(feeID string) []string {
	type rec struct {
		id string
		at time.Time
	}
	var recs []rec
	for _, p := range s.payments {
		if p.FeeID == feeID {
			recs = append(recs, rec{id: p.ID, at: p.CreatedAt})
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].at.Equal(recs[j].at) {
			return recs[i].at.Before(recs[j].at)
		}
		return recs[i].id < recs[j].id
	})
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.id)
	}
	return ids
}

func matchFee(fee *models.Fee, filter models.FeeFilter, asOf time.Time) bool {
	if filter.StudentID != "" && fee.StudentID != filter.StudentID {
		return false
	}
	if filter.CourseID != "" && (fee.CourseID == nil || *fee.CourseID != filter.CourseID) {
		return false
	}
	if filter.BatchID != "" && (fee.BatchID == nil || *fee.BatchID != filter.BatchID) {
		return false
	}
	if !filter.DueFrom.IsZero() && fee.DueDate.Before(filter.DueFrom) {
		return false
	}
	if !filter.DueTo.IsZero() && fee.DueDate.After(filter.DueTo) {
		return false
	}
	if filter.Status != "" && models.DeriveStatus(fee, asOf) != filter.Status {
		return false
	}
	return true
}

func sortPayments(ps []*models.Payment) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].CreatedAt.Before(ps[j].CreatedAt)
		}
		return strings.Compare(ps[i].ID, ps[j].ID) < 0
	})
}

func cloneFee(f *models.Fee) *models.Fee {
	out := *f
	if f.Period != nil {
		p := *f.Period
		out.Period = &p
	}
	if f.CourseID != nil {
		c := *f.CourseID
		out.CourseID = &c
	}
	if f.BatchID != nil {
		b := *f.BatchID
		out.BatchID = &b
	}
	out.PaymentIDs = append([]string(nil), f.PaymentIDs...)
	return &out
}

func clonePayment(p *models.Payment) *models.Payment {
	out := *p
	return &out
}
