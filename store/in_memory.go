package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// InMemoryStore is a process local Store. A single mutex guards every
// map, which makes check-and-decrement atomic.
type InMemoryStore struct {
	mu         sync.RWMutex
	products   map[string]*Product
	order      []string
	orders     map[string]Order
	complaints map[string]Complaint
	orderSeq   int64
	cmpSeq     int64
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		products:   make(map[string]*Product),
		orders:     make(map[string]Order),
		complaints: make(map[string]Complaint),
	}
}

// FindProduct implements Catalog.
func (s *InMemoryStore) FindProduct(_ context.Context, query string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	for _, name := range s.order {
		if strings.Contains(strings.ToLower(name), q) {
			return *s.products[name], nil
		}
	}
	return Product{}, fmt.Errorf("product %q: %w", query, ErrNotFound)
}

// GetProduct implements Catalog.
func (s *InMemoryStore) GetProduct(_ context.Context, name string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[name]
	if !ok {
		return Product{}, fmt.Errorf("product %q: %w", name, ErrNotFound)
	}
	return *p, nil
}

// PutProduct implements Catalog.
func (s *InMemoryStore) PutProduct(_ context.Context, p Product) error {
	if p.Name == "" {
		return fmt.Errorf("store: product name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.Name]; !exists {
		s.order = append(s.order, p.Name)
	}
	cp := p
	s.products[p.Name] = &cp
	return nil
}

// Products implements Catalog.
func (s *InMemoryStore) Products(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, *s.products[name])
	}
	return out, nil
}

// DecrementStock implements Catalog.
func (s *InMemoryStore) DecrementStock(_ context.Context, name string, qty int) (Product, error) {
	if qty <= 0 {
		return Product{}, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[name]
	if !ok {
		return Product{}, fmt.Errorf("product %q: %w", name, ErrNotFound)
	}
	if p.Stock < qty {
		return Product{}, &InsufficientStockError{Product: name, Requested: qty, Available: p.Stock}
	}
	p.Stock -= qty
	return *p, nil
}

// CreateOrder implements Orders.
func (s *InMemoryStore) CreateOrder(_ context.Context, o Order) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orderSeq++
	o.ID = OrderID(s.orderSeq)
	s.orders[o.ID] = o
	return o, nil
}

// GetOrder implements Orders.
func (s *InMemoryStore) GetOrder(_ context.Context, id string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return Order{}, fmt.Errorf("order %q: %w", id, ErrNotFound)
	}
	return o, nil
}

// CreateComplaint implements Complaints.
func (s *InMemoryStore) CreateComplaint(_ context.Context, c Complaint) (Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cmpSeq++
	c.ID = ComplaintID(s.cmpSeq)
	s.complaints[c.ID] = c
	return c, nil
}

// GetComplaint implements Complaints.
func (s *InMemoryStore) GetComplaint(_ context.Context, id string) (Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.complaints[id]
	if !ok {
		return Complaint{}, fmt.Errorf("complaint %q: %w", id, ErrNotFound)
	}
	return c, nil
}
