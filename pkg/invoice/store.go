package invoice

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// Store persists invoices.
//
// Update must apply fn atomically: concurrent updates of the same invoice
// are serialized and fn always sees the latest stored version. If fn returns
// an error nothing is written.
type Store interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, number string) (*Invoice, error)
	ListBySubject(ctx context.Context, subjectID string) ([]*Invoice, error)
	ListByStatus(ctx context.Context, status Status) ([]*Invoice, error)
	Update(ctx context.Context, number string, fn func(*Invoice) error) (*Invoice, error)
}

type memoryStore struct {
	mu       sync.RWMutex
	invoices map[string]*Invoice
}

// NewMemoryStore returns an in-memory Store for tests and single-process setups.
func NewMemoryStore() Store {
	return &memoryStore{invoices: make(map[string]*Invoice)}
}

func (s *memoryStore) Create(_ context.Context, inv *Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.Number]; exists {
		return ErrDuplicateNumber
	}
	s.invoices[inv.Number] = inv.Clone()
	return nil
}

func (s *memoryStore) Get(_ context.Context, number string) (*Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[number]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	return inv.Clone(), nil
}

func (s *memoryStore) ListBySubject(_ context.Context, subjectID string) ([]*Invoice, error) {
	return s.filter(func(inv *Invoice) bool { return inv.SubjectID == subjectID }), nil
}

func (s *memoryStore) ListByStatus(_ context.Context, status Status) ([]*Invoice, error) {
	return s.filter(func(inv *Invoice) bool { return inv.Status == status }), nil
}

func (s *memoryStore) Update(_ context.Context, number string, fn func(*Invoice) error) (*Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.invoices[number]
	if !ok {
		return nil, ErrInvoiceNotFound
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.invoices[number] = next
	return next.Clone(), nil
}

func (s *memoryStore) filter(keep func(*Invoice) bool) []*Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Invoice, 0)
	for _, inv := range s.invoices {
		if keep(inv) {
			out = append(out, inv.Clone())
		}
	}
	SortByIssue(out)
	return out
}

// SortByIssue orders invoices by issue time, then number.
func SortByIssue(invoices []*Invoice) {
	slices.SortFunc(invoices, func(a, b *Invoice) int {
		if r := a.IssuedAt.Compare(b.IssuedAt); r != 0 {
			return r
		}
		return cmp.Compare(a.Number, b.Number)
	})
}

