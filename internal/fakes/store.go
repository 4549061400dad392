// Package fakes provides in-memory collaborators with the same guarded-write
// semantics as the postgres repositories, for tests and local runs.
package fakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/weave-cash/backend/internal/models"
	"github.com/weave-cash/backend/internal/repositories"
)

type MemoryInvoiceStore struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]models.Invoice
	now      func() time.Time

	// BeforeWrite, if set, runs before each guarded write without the lock
	// held, so a test can slip a competing write in between read and CAS.
	BeforeWrite func(id uuid.UUID)
	// Err, if set, is returned by every call.
	Err error
}

func NewMemoryInvoiceStore() *MemoryInvoiceStore {
	return &MemoryInvoiceStore{
		invoices: make(map[uuid.UUID]models.Invoice),
		now:      time.Now,
	}
}

// Put stores inv as-is, replacing any invoice with the same id.
func (s *MemoryInvoiceStore) Put(inv models.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	s.invoices[inv.ID] = inv
}

// Snapshot returns the stored invoice, ignoring Err.
func (s *MemoryInvoiceStore) Snapshot(id uuid.UUID) (models.Invoice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	return inv, ok
}

func (s *MemoryInvoiceStore) Create(ctx context.Context, inv *models.Invoice) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	inv.ID = uuid.New()
	inv.Status = models.InvoiceStatusPending
	inv.CreatedAt = now
	inv.UpdatedAt = now
	s.invoices[inv.ID] = *inv
	return nil
}

func (s *MemoryInvoiceStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &inv, nil
}

func (s *MemoryInvoiceStore) List(ctx context.Context, f repositories.InvoiceFilter) ([]models.Invoice, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := s.filter(func(inv models.Invoice) bool {
		if f.MerchantID != nil && (inv.MerchantID == nil || *inv.MerchantID != *f.MerchantID) {
			return false
		}
		return f.Status == nil || inv.Status == *f.Status
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryInvoiceStore) ListRefreshable(ctx context.Context, limit int) ([]models.Invoice, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := s.filter(func(inv models.Invoice) bool {
		return inv.Status.IsRefreshable() && inv.HasDeposit()
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return head(out, limit), nil
}

func (s *MemoryInvoiceStore) ListExpirable(ctx context.Context, cutoff time.Time, limit int) ([]models.Invoice, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := s.filter(func(inv models.Invoice) bool {
		return inv.Status == models.InvoiceStatusAwaitingDeposit && inv.ExpiresAt != nil && inv.ExpiresAt.Before(cutoff)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	return head(out, limit), nil
}

func (s *MemoryInvoiceStore) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.InvoiceStatus, paidAt time.Time) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	if s.BeforeWrite != nil {
		s.BeforeWrite(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok || inv.Status != from {
		return false, nil
	}
	inv.Status = to
	if to == models.InvoiceStatusCompleted && inv.PaidAt == nil {
		t := paidAt
		inv.PaidAt = &t
	}
	inv.UpdatedAt = s.now()
	s.invoices[id] = inv
	return true, nil
}

func (s *MemoryInvoiceStore) ApplyQuote(ctx context.Context, id uuid.UUID, t models.QuoteTerms) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	if s.BeforeWrite != nil {
		s.BeforeWrite(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok || inv.Status != models.InvoiceStatusPending {
		return false, nil
	}
	inv.Status = models.InvoiceStatusAwaitingDeposit
	inv.PayToken = &t.PayToken
	inv.PayNetwork = &t.PayNetwork
	inv.DepositAddress = &t.DepositAddress
	inv.DepositMemo = t.DepositMemo
	inv.QuotedAt = &t.QuotedAt
	inv.ExpiresAt = &t.ExpiresAt
	inv.UpdatedAt = s.now()
	s.invoices[id] = inv
	return true, nil
}

func (s *MemoryInvoiceStore) filter(keep func(models.Invoice) bool) []models.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Invoice
	for _, inv := range s.invoices {
		if keep(inv) {
			out = append(out, inv)
		}
	}
	return out
}

func head(in []models.Invoice, limit int) []models.Invoice {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}
