// Package store holds the product catalog, orders and complaints used by
// the support tools, behind interfaces with in-memory, Redis and SQL
// implementations.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Order and complaint statuses.
const (
	OrderProcessing = "Processing"
	OrderShipped    = "Shipped"

	ComplaintPending  = "Pending"
	ComplaintResolved = "Resolved"
)

// ID prefixes for generated identifiers.
const (
	OrderIDPrefix     = "ORD-"
	ComplaintIDPrefix = "CMP-"
)

// ErrNotFound is returned when a product, order or complaint does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrInvalidQuantity is returned for non-positive order quantities.
var ErrInvalidQuantity = errors.New("store: quantity must be positive")

// InsufficientStockError reports a rejected stock decrement. The stock is
// left untouched.
type InsufficientStockError struct {
	Product   string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("store: insufficient stock for %s: requested %d, available %d", e.Product, e.Requested, e.Available)
}

// Product is a catalog entry. Price is in dollars.
type Product struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// Order is a placed order.
type Order struct {
	ID         string `json:"id"`
	Product    string `json:"product"`
	Quantity   int    `json:"quantity"`
	CustomerID string `json:"customer_id"`
	Status     string `json:"status"`
}

// Complaint is a registered customer complaint.
type Complaint struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	Text       string `json:"complaint"`
	Status     string `json:"status"`
}

// Catalog manages products.
type Catalog interface {
	// FindProduct returns the first product, in catalog order, whose name
	// contains query case-insensitively.
	FindProduct(ctx context.Context, query string) (Product, error)
	GetProduct(ctx context.Context, name string) (Product, error)
	// PutProduct inserts or replaces a product. New products go to the end
	// of the catalog.
	PutProduct(ctx context.Context, p Product) error
	Products(ctx context.Context) ([]Product, error)
	// DecrementStock atomically checks and lowers stock, returning the
	// updated product or *InsufficientStockError without mutating.
	DecrementStock(ctx context.Context, name string, qty int) (Product, error)
}

// Orders manages orders.
type Orders interface {
	// CreateOrder assigns the next ORD-n identifier and stores o.
	CreateOrder(ctx context.Context, o Order) (Order, error)
	GetOrder(ctx context.Context, id string) (Order, error)
}

// Complaints manages complaints.
type Complaints interface {
	// CreateComplaint assigns the next CMP-n identifier and stores c.
	CreateComplaint(ctx context.Context, c Complaint) (Complaint, error)
	GetComplaint(ctx context.Context, id string) (Complaint, error)
}

// Store bundles every store concern. Implementations are safe for
// concurrent use.
type Store interface {
	Catalog
	Orders
	Complaints
}

// OrderID formats the n-th order identifier.
func OrderID(n int64) string { return fmt.Sprintf("%s%d", OrderIDPrefix, n) }

// ComplaintID formats the n-th complaint identifier.
func ComplaintID(n int64) string { return fmt.Sprintf("%s%d", ComplaintIDPrefix, n) }
